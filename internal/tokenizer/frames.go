package tokenizer

import (
	"errors"
	"fmt"
)

// ErrInvalidLength is returned for a non-positive target length.
var ErrInvalidLength = errors.New("invalid sequence length")

// EncodeFrames encodes each frame and fits it to length ids: shorter frames
// are right-padded with the pad token, longer ones truncated. With length
// 0 every frame is padded to the longest one.
func EncodeFrames(tok Tokenizer, frames []string, length int) ([][]int32, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	encoded := make([][]int32, len(frames))
	longest := 0
	for i, f := range frames {
		ids, err := tok.Encode(f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		encoded[i] = ids
		longest = max(longest, len(ids))
	}
	if length == 0 {
		length = longest
	}
	if length == 0 {
		return nil, fmt.Errorf("%w: all frames are empty", ErrInvalidLength)
	}

	pad := tok.PadToken()
	out := make([][]int32, len(frames))
	for i, ids := range encoded {
		row := make([]int32, length)
		n := copy(row, ids)
		for j := n; j < length; j++ {
			row[j] = pad
		}
		out[i] = row
	}
	return out, nil
}
