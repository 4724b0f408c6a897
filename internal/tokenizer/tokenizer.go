// ABOUTME: Token counting for chunk sizing, backed by the completion model's BPE scheme
// ABOUTME: BPE ranks are embedded in the binary; word and 4-chars-per-token counters also offered
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	// ranks ship with the binary; the default loader downloads them
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter reports how many tokens a text occupies
type Counter interface {
	Count(text string) int
}

// Kinds accepted by New
const (
	KindTiktoken = "tiktoken"
	KindWords    = "words"
	KindApprox   = "approx"
)

// FallbackEncoding is used when the model has no registered encoding
const FallbackEncoding = "cl100k_base"

// New returns the counter selected by kind
func New(kind, model string) (Counter, error) {
	switch strings.ToLower(kind) {
	case "", KindTiktoken:
		return NewTiktoken(model)
	case KindWords:
		return Words{}, nil
	case KindApprox:
		return Approx{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (want tiktoken, words, or approx)", kind)
	}
}

// Tiktoken counts BPE tokens using the encoding of a completion model
type Tiktoken struct {
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktoken loads the encoding for model, falling back to cl100k_base
func NewTiktoken(model string) (*Tiktoken, error) {
	name := EncodingFor(model)
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", name, err)
	}
	return &Tiktoken{enc: enc, encoding: name}, nil
}

// EncodingFor names the BPE encoding used by model
func EncodingFor(model string) string {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name
	}
	// longest prefix wins so "gpt-4o-" beats "gpt-4-"
	best, name := 0, FallbackEncoding
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if len(prefix) > best && strings.HasPrefix(model, prefix) {
			best, name = len(prefix), enc
		}
	}
	return name
}

// Encoding returns the name of the loaded encoding
func (t *Tiktoken) Encoding() string { return t.encoding }

// Count encodes text and returns the token count
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Words counts whitespace-delimited words
type Words struct{}

// Count returns the number of fields in text
func (Words) Count(text string) int {
	return len(strings.Fields(text))
}

// Approx estimates tokens as one per four characters, rounded up
type Approx struct{}

// Count returns ceil(runes/4)
func (Approx) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
