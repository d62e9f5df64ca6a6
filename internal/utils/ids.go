package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// CorrelationIDSize is long enough to tell apart the uploads of a busy day
// in the logs while staying readable.
const CorrelationIDSize = 12

const correlationAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// CorrelationID returns a short id used to tie together the log lines of a
// single upload. Ambiguous characters are left out so ids can be read aloud.
func CorrelationID() string {
	return gonanoid.MustGenerate(correlationAlphabet, CorrelationIDSize)
}
