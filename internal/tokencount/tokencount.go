// Package tokencount provides a last-resort token estimate for usage
// tracking when an upstream stream reports no completion token count.
package tokencount

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encoder     *tiktoken.Tiktoken
	encoderOnce sync.Once
	encoderErr  error
)

func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoder, encoderErr
}

// Estimate returns an approximate token count for text using the cl100k_base
// encoding. Used as the StreamTransformer's output_tokens fallback at stream
// end when no chunk reported a non-zero completion token count, so
// output_tokens is not reported as zero; input_tokens is not estimated.
func Estimate(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc, err := getEncoder()
	if err != nil {
		return 0, fmt.Errorf("tokencount: failed to load encoder: %w", err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}
