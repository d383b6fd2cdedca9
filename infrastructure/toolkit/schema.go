package toolkit

import (
	"encoding/json"
	"fmt"
)

func stringProp(description string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type": "string", "description": %q}`, description))
}

func intProp(description string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type": "integer", "description": %q}`, description))
}
