package agent

import "strings"

// User-facing policy texts. The assistant serves a bilingual audience, so
// fixed messages are selected by a lightweight language sniff on the query.

const (
	abstainEN = "I could not find information about that in my knowledge base. Could you rephrase the question or give me more detail?"
	abstainID = "Maaf, saya tidak menemukan informasi tentang hal itu di basis pengetahuan saya. Bisakah Anda menyusun ulang pertanyaannya?"

	hedgeEN = "Note: I found only limited supporting information for this, so please verify it independently.\n\n"
	hedgeID = "Catatan: saya hanya menemukan informasi pendukung yang terbatas, mohon verifikasi secara mandiri.\n\n"

	apologyEN = "I apologize, I couldn't produce a complete answer right now. Please try again in a moment."
	apologyID = "Mohon maaf, saya tidak dapat menyusun jawaban lengkap saat ini. Silakan coba lagi sebentar lagi."
)

var indonesianMarkers = []string{
	"apa", "apakah", "yang", "bagaimana", "berapa", "adalah", "dengan",
	"untuk", "saya", "bisa", "tidak", "kapan", "dimana", "di mana", "siapa",
}

// IsIndonesian reports whether the query reads as Indonesian. The sniff is
// deliberately crude: two or more Indonesian function words win.
func IsIndonesian(query string) bool {
	words := strings.Fields(strings.ToLower(query))
	hits := 0
	for _, w := range words {
		w = strings.Trim(w, "?!.,:;\"'")
		for _, m := range indonesianMarkers {
			if w == m {
				hits++
				break
			}
		}
	}
	return hits >= 2
}

// AbstainMessage returns the fixed "no information found" text in the
// query's language.
func AbstainMessage(query string) string {
	if IsIndonesian(query) {
		return abstainID
	}
	return abstainEN
}

// HedgePrefix returns the warning attached to weakly evidenced answers.
func HedgePrefix(query string) string {
	if IsIndonesian(query) {
		return hedgeID
	}
	return hedgeEN
}

// ApologyMessage returns the failure acknowledgement used when the final
// answer cannot be synthesized.
func ApologyMessage(query string) string {
	if IsIndonesian(query) {
		return apologyID
	}
	return apologyEN
}

// IsAbstain reports whether text is one of the fixed abstain messages.
func IsAbstain(text string) bool {
	return text == abstainEN || text == abstainID
}

// stub phrases are leftover agent scaffolding the model sometimes emits in
// place of a real answer. They are discarded, never returned to the user.
var stubPhrases = []string{
	"observation: none",
	"no further action needed",
	"thought:",
	"action: none",
}

// IsStub reports whether a candidate answer is scaffolding residue.
func IsStub(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return true
	}
	for _, s := range stubPhrases {
		if t == s {
			return true
		}
	}
	return false
}
