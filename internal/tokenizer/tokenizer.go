package tokenizer

// Tokenizer is the core interface for sequence tokenization.
type Tokenizer interface {
	// Encode converts a sequence to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to a sequence.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown token ID.
	// Returns -1 if not applicable.
	UnkToken() int32

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(token int32) bool
}
