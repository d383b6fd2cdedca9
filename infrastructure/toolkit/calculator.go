package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/balizero/zantara-agentic/domain/tool"
)

type calculatorInput struct {
	Expression string `json:"expression"`
}

// NewCalculator builds the arithmetic tool. It evaluates +, -, *, /, and
// parentheses over decimal numbers; anything else is invalid input.
// Calculator results carry no sources, so they never raise the evidence
// score's citation part.
func NewCalculator() tool.Tool {
	return tool.NewBuilder("calculator").
		WithDescription("Evaluate an arithmetic expression. Input: {\"expression\": \"2 * (3 + 4)\"}").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"expression": stringProp("the arithmetic expression"),
		}, []string{"expression"})).
		WithHandler(func(_ context.Context, raw json.RawMessage) (tool.Result, error) {
			var input calculatorInput
			if err := json.Unmarshal(raw, &input); err != nil || strings.TrimSpace(input.Expression) == "" {
				return tool.Result{}, tool.ErrInvalidInput
			}
			value, err := evalExpression(input.Expression)
			if err != nil {
				return tool.Result{}, fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
			}
			return tool.NewTextResult(strconv.FormatFloat(value, 'f', -1, 64)), nil
		}).
		MustBuild()
}

// evalExpression is a recursive-descent evaluator:
//
//	expr   = term {("+"|"-") term}
//	term   = factor {("*"|"/") factor}
//	factor = number | "(" expr ")" | "-" factor
func evalExpression(s string) (float64, error) {
	p := &exprParser{input: s}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected %q at offset %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if (c < '0' || c > '9') && c != '.' {
				break
			}
			p.pos++
		}
		return strconv.ParseFloat(p.input[start:p.pos], 64)
	default:
		return 0, fmt.Errorf("unexpected character at offset %d", p.pos)
	}
}
