package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
)

const fakeDims = 64

// fakeEmbedder hashes words into a bag-of-words vector, so texts sharing
// words are similar.
type fakeEmbedder struct {
	mu sync.Mutex
	// failOnBatch makes the n-th EmbedBatch call (1-based) fail.
	failOnBatch int
	batches     [][]string
	queries     []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	return bagOfWords(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, texts)
	if f.failOnBatch > 0 && len(f.batches) == f.failOnBatch {
		return nil, errors.New("quota exhausted")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = bagOfWords(text)
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }

func (f *fakeEmbedder) Close() error { return nil }

func (f *fakeEmbedder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func bagOfWords(text string) []float32 {
	vec := make([]float32, fakeDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDims]++
	}
	// Keep empty texts embeddable.
	vec[0] += 0.01
	return vec
}

// fakeLLM returns a fixed reply, or err when set.
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    [][]driven.ChatMessage
	lastOpts driven.ChatOptions
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

func (f *fakeLLM) Close() error { return nil }

// fakePrompts serves fixed templates.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if tmpl, ok := p[name]; ok {
		return tmpl, nil
	}
	return "", errors.New("prompt not found: " + name)
}

func (p fakePrompts) Reload() {}

func defaultTestPrompts() fakePrompts {
	return fakePrompts{
		driven.PromptChatSystem: "Answer from context.",
		driven.PromptChatUser:   "Context:\n{context}\n\nQuestion: {question}",
	}
}

// fakeExtractor returns one document holding text, or err. Sources
// without a configured text or content get a placeholder text.
type fakeExtractor struct {
	mu    sync.Mutex
	text  map[string]string
	err   map[string]error
	calls []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{text: make(map[string]string), err: make(map[string]error)}
}

func (f *fakeExtractor) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, src.ID)
	if err, ok := f.err[src.ID]; ok {
		return nil, err
	}
	text, ok := f.text[src.ID]
	if !ok {
		text = string(content)
	}
	if !ok && text == "" {
		// URL sources carry no content bytes.
		text = "content of " + src.ID
	}
	return []domain.Document{{
		ID:       "doc-" + src.ID,
		SourceID: src.ID,
		URI:      src.ID,
		Content:  text,
		Metadata: map[string]any{"source": src.ID},
	}}, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeRegistry dispatches every supported source to one extractor.
type fakeRegistry struct {
	extractor driven.Extractor
}

func (r fakeRegistry) ForSource(src *domain.Source) (driven.Extractor, error) {
	if src.Kind == domain.SourceKindFile && !src.FileType.IsSupported() {
		return nil, domain.ErrUnsupportedType
	}
	return r.extractor, nil
}

// fakeUploads records saved files without touching disk.
type fakeUploads struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeUploads() *fakeUploads {
	return &fakeUploads{saved: make(map[string][]byte)}
}

func (u *fakeUploads) Save(_ context.Context, name string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.saved[name] = data
	return "/uploads/" + name, nil
}

func (u *fakeUploads) Dir() string { return "/uploads" }
