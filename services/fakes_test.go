package services

import (
	"context"
	"sync"
)

// scriptedCompletion 按顺序返回预设输出，并记录收到的提示词
type scriptedCompletion struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	prompts []string
}

func (s *scriptedCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)

	var out string
	var err error
	if i < len(s.outputs) {
		out = s.outputs[i]
	} else if len(s.outputs) > 0 {
		out = s.outputs[len(s.outputs)-1]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return out, err
}

func (s *scriptedCompletion) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *scriptedCompletion) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}
