// Package cli provides a line-based terminal executor for concierge
// sessions: it plays the human side of the interview over stdin and
// renders the synthesized prompt as it streams.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/entrhq/concierge/pkg/agent"
//	    "github.com/entrhq/concierge/pkg/executor/cli"
//	    "github.com/entrhq/concierge/pkg/llm/openai"
//	)
//
//	func main() {
//	    provider, _ := openai.NewProvider(
//	        os.Getenv("OPENAI_API_KEY"),
//	        openai.WithModel("gpt-4o"),
//	    )
//
//	    con, _ := agent.New(provider)
//	    executor := cli.NewExecutor()
//
//	    if _, err := executor.RunInterview(context.Background(), con); err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := executor.StreamPrompt(context.Background(), con); err != nil {
//	        log.Fatal(err)
//	    }
//	}
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/concierge/pkg/agent"
	"github.com/entrhq/concierge/pkg/interview"
)

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Executor is a CLI executor that collects interview answers from the
// terminal. It implements interview.AnswerSource.
type Executor struct {
	reader *bufio.Reader
	writer io.Writer
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithReader sets a custom input reader (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// NewExecutor creates a new CLI executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ReadAnswer implements interview.AnswerSource: it prints the question and
// reads one line. EOF and the exit commands convert to the convergence
// sentinel so a closed stdin ends the interview instead of erroring.
func (e *Executor) ReadAnswer(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintln(e.writer)
	fmt.Fprintln(e.writer, questionStyle.Render(question))
	fmt.Fprint(e.writer, "> ")

	input, err := e.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return interview.DoneSentinel, nil
		}
		return "", fmt.Errorf("cli: failed to read input: %w", err)
	}

	input = strings.TrimSpace(input)
	if input == "exit" || input == "quit" {
		return interview.DoneSentinel, nil
	}
	return input, nil
}

// RunInterview runs a full interview session against the concierge,
// reading answers from the executor's input.
func (e *Executor) RunInterview(ctx context.Context, con *agent.Concierge) (*interview.Result, error) {
	fmt.Fprintln(e.writer, headingStyle.Render("Interview"))
	fmt.Fprintln(e.writer, noticeStyle.Render("Answer each question, or type 'exit' (or reply DONE) to stop."))

	res, err := con.LearnFromUser(ctx, e)
	if err != nil {
		fmt.Fprintln(e.writer, errorStyle.Render(fmt.Sprintf("interview failed: %v", err)))
		return res, err
	}

	fmt.Fprintln(e.writer)
	if res.Exhausted {
		fmt.Fprintln(e.writer, noticeStyle.Render(
			fmt.Sprintf("Stopped after %d rounds; the task may still be underspecified.", len(res.Rounds))))
	} else {
		fmt.Fprintln(e.writer, noticeStyle.Render(
			fmt.Sprintf("Converged after %d rounds.", len(res.Rounds))))
	}
	return res, nil
}

// StreamPrompt synthesizes the prompt and renders it to the terminal as it
// streams from the provider.
func (e *Executor) StreamPrompt(ctx context.Context, con *agent.Concierge) error {
	stream, err := con.StreamPrompt(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.writer)
	fmt.Fprintln(e.writer, headingStyle.Render("Synthesized Prompt"))
	fmt.Fprintln(e.writer)

	for chunk := range stream {
		if chunk.IsError() {
			fmt.Fprintln(e.writer, errorStyle.Render(fmt.Sprintf("stream error: %v", chunk.Error)))
			return chunk.Error
		}
		fmt.Fprint(e.writer, chunk.Content)
	}
	fmt.Fprintln(e.writer)
	return nil
}
