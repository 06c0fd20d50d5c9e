package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Residues lists the canonical amino acids in id order, starting at 1.
const Residues = "ACDEFGHIKLMNPQRSTVWY"

// Special ids.
const (
	PadID int32 = 0
	UnkID int32 = int32(len(Residues)) + 1
)

// VocabSize is the size of the amino-acid vocabulary.
const VocabSize = len(Residues) + 2

// ambiguous residues map to UnkID. '*' marks a stop codon.
const ambiguous = "XBZJUO*"

var (
	// ErrInvalidResidue is returned for characters that are not residues.
	ErrInvalidResidue = errors.New("invalid residue")

	// ErrInvalidToken is returned when decoding ids outside the vocabulary.
	ErrInvalidToken = errors.New("invalid token id")
)

// AminoAcid encodes protein sequences one residue per id.
type AminoAcid struct {
	ids [128]int32 // ASCII -> id, -1 for invalid

	// Strict rejects ambiguous residues and stop codons instead of mapping
	// them to UnkID.
	Strict bool
}

// NewAminoAcid creates an AminoAcid tokenizer.
func NewAminoAcid() *AminoAcid {
	a := &AminoAcid{}
	for i := range a.ids {
		a.ids[i] = -1
	}
	for i, r := range Residues {
		a.ids[r] = int32(i) + 1
		a.ids[unicode.ToLower(r)] = int32(i) + 1
	}
	for _, r := range ambiguous {
		a.ids[r] = UnkID
		a.ids[unicode.ToLower(r)] = UnkID
	}
	return a
}

// Encode converts a sequence to ids. Case is ignored and whitespace skipped.
func (a *AminoAcid) Encode(text string) ([]int32, error) {
	tokens := make([]int32, 0, len(text))
	for pos, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		id := int32(-1)
		if r < rune(len(a.ids)) {
			id = a.ids[r]
		}
		if id < 0 || (a.Strict && id == UnkID) {
			return nil, fmt.Errorf("%w %q at position %d", ErrInvalidResidue, r, pos)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}

// Decode converts ids back to upper-case residues. Padding is dropped and
// UnkID decodes to 'X'.
func (a *AminoAcid) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tokens))
	for i, id := range tokens {
		switch {
		case id == PadID:
		case id == UnkID:
			sb.WriteByte('X')
		case id > 0 && id < UnkID:
			sb.WriteByte(Residues[id-1])
		default:
			return "", fmt.Errorf("%w %d at position %d", ErrInvalidToken, id, i)
		}
	}
	return sb.String(), nil
}

// VocabSize returns 22.
func (a *AminoAcid) VocabSize() int {
	return VocabSize
}

// PadToken returns PadID.
func (a *AminoAcid) PadToken() int32 {
	return PadID
}

// UnkToken returns UnkID.
func (a *AminoAcid) UnkToken() int32 {
	return UnkID
}

// IsSpecialToken reports whether token is PadID or UnkID.
func (a *AminoAcid) IsSpecialToken(token int32) bool {
	return token == PadID || token == UnkID
}
