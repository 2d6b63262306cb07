// Package ddq sequences the answer pipeline: validate the question,
// retrieve grounding snippets, synthesize an answer and archive the
// response document.
package ddq

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/fabfab/ddq-agent/grounding"
	"github.com/fabfab/ddq-agent/llm"
	"github.com/fabfab/ddq-agent/search"
)

const defaultMaxPromptChars = 5000

// Archiver persists the rendered response document and returns its URL.
type Archiver interface {
	Archive(ctx context.Context, question, answer string, sources []string, templateID string) (string, error)
}

type Service struct {
	searcher  search.Searcher
	formatter grounding.Formatter
	llm       llm.Client
	archiver  Archiver
	logger    *log.Logger

	searchTop      int
	maxPromptChars int
}

type ServiceOptions struct {
	SearchTop       int
	MaxPromptChars  int
	MaxContextChars int
}

func NewService(searcher search.Searcher, llmClient llm.Client, archiver Archiver, logger *log.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = defaultMaxPromptChars
	}

	return &Service{
		searcher:       searcher,
		formatter:      grounding.Formatter{MaxChars: opts.MaxContextChars},
		llm:            llmClient,
		archiver:       archiver,
		logger:         logger,
		searchTop:      opts.SearchTop,
		maxPromptChars: opts.MaxPromptChars,
	}
}

// Answer runs the pipeline stages strictly in order. A failed stage stops
// the request; only the synthesizer retries internally. Zero retrieval
// results are valid input and still produce an answer.
func (s *Service) Answer(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Prompt)
	if question == "" {
		return Response{}, fmt.Errorf("%w: prompt is empty", ErrValidation)
	}
	if len(question) > s.maxPromptChars {
		return Response{}, fmt.Errorf("%w: prompt exceeds maximum length of %d characters", ErrValidation, s.maxPromptChars)
	}

	if s.searcher == nil || s.llm == nil || s.archiver == nil {
		return Response{}, fmt.Errorf("%w: pipeline clients are not initialized", ErrRetrievalUnavailable)
	}

	result, err := s.searcher.Search(ctx, question, search.Options{Top: s.searchTop})
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	s.logger.Printf("retrieved %d snippets", len(result.Snippets))

	grounded := s.formatter.Format(result.Snippets)

	messages := buildMessages(grounded.Text, question, req.History)
	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Response{}, fmt.Errorf("%w: model returned an empty answer", ErrSynthesis)
	}

	url, err := s.archiver.Archive(ctx, question, answer, grounded.Sources, req.Template)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return Response{
		Answer:      answer,
		Sources:     grounded.Sources,
		DocumentURL: url,
	}, nil
}

// buildMessages assembles the sequence sent to the model: the system
// instruction with the grounding context appended, then the prior turns
// in their original order, then the current question last. History
// entries with an unknown role or empty content are skipped.
func buildMessages(contextText, question string, history []llm.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: SystemInstruction + contextText,
	})

	for _, turn := range history {
		if !llm.ValidRole(turn.Role) || turn.Content == "" {
			continue
		}
		messages = append(messages, turn)
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages
}
