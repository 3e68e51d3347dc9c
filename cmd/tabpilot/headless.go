package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/entrhq/tabpilot/pkg/types"
)

// errNoConsent is returned when a one-shot run starts before the terms were accepted.
var errNoConsent = errors.New("terms of use not accepted: run tabpilot once interactively or pass -accept-terms")

// runHeadless sends a single request and prints the final answer.
// Progress goes to stderr so stdout carries only the answer.
func runHeadless(ctx context.Context, a *app, config *Config) error {
	if !a.sessions.Consented() {
		return errNoConsent
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(os.Stderr, a.events)
	}()

	reply, err := a.conv.Send(ctx, config.Prompt, nil)
	close(a.events)
	<-done
	if err != nil {
		return err
	}
	if reply == nil {
		return errors.New("empty prompt")
	}

	fmt.Fprintln(os.Stdout, reply.Content)
	for i, opt := range reply.Options {
		fmt.Fprintf(os.Stdout, "%d. %s\n", i+1, opt.Label)
	}
	if strings.HasPrefix(reply.Content, "Error: ") {
		return errors.New(reply.Content)
	}
	return nil
}

// printProgress writes thoughts and actions until events is closed.
func printProgress(w io.Writer, events <-chan *types.AgentEvent) {
	for event := range events {
		switch event.Type {
		case types.EventTypeThought:
			fmt.Fprintf(w, "💭 %s\n", event.Content)
		case types.EventTypeActionStart:
			fmt.Fprintf(w, "🌐 %s\n", event.ActionName)
		case types.EventTypeRetry:
			fmt.Fprintf(w, "⏳ %v\n", event.Error)
		}
	}
}
