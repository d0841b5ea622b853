package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/answers"
	"github.com/yordimul/LexiTax-AI/internal/apiclient"
	"github.com/yordimul/LexiTax-AI/internal/auth"
	"github.com/yordimul/LexiTax-AI/internal/chat"
)

const helpText = `Commands:
  /signup            create an account
  /login             sign in
  /logout            sign out and clear local conversations
  /new               start a new conversation
  /list              list conversations
  /open <n|id>       open a conversation
  /quota             show remaining guest queries
  /suggest           show example questions
  /help              show this help
  /quit              exit
Anything else is sent as a question.`

// repl is the interactive terminal loop. client is nil in offline mode.
type repl struct {
	in         *bufio.Scanner
	out        io.Writer
	client     *apiclient.Client
	machine    *chat.Machine
	timeout    time.Duration
	readSecret func(prompt string) (string, error)
}

func newREPL(in io.Reader, out io.Writer, client *apiclient.Client, machine *chat.Machine, timeout time.Duration) *repl {
	r := &repl{
		in:      bufio.NewScanner(in),
		out:     out,
		client:  client,
		machine: machine,
		timeout: timeout,
	}
	r.readSecret = r.prompt
	return r
}

// run reads lines until EOF or /quit.
func (r *repl) run(ctx context.Context) error {
	r.printf("LexiTax AI: Ethiopian tax law assistant. Type /help for commands.\n")
	r.printStatus()
	for {
		r.printf("> ")
		if !r.in.Scan() {
			r.printf("\n")
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if quit := r.handle(ctx, line); quit {
			return nil
		}
	}
}

// handle executes one input line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.ask(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		r.printf("%s\n", helpText)
	case "/signup":
		r.signup(ctx)
	case "/login":
		r.login(ctx)
	case "/logout":
		r.logout(ctx)
	case "/new":
		conv := r.machine.NewConversation()
		r.printf("Started %q.\n", conv.Title)
	case "/list":
		r.list()
	case "/open":
		r.open(ctx, arg)
	case "/quota":
		r.printQuota()
	case "/suggest":
		for i, q := range answers.SuggestedQuestions {
			r.printf("  %d. %s\n", i+1, q)
		}
	default:
		r.printf("Unknown command %s. Type /help for commands.\n", cmd)
	}
	return false
}

func (r *repl) ask(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ex, err := r.machine.SubmitQuery(ctx, text)
	if err != nil {
		var limitErr *chat.GuestLimitError
		switch {
		case errors.As(err, &limitErr):
			r.printf("%s\n", limitErr.Error())
		case errors.Is(err, chat.ErrEmptyQuery):
		default:
			r.printf("Error: %s\n", describe(err))
		}
		return
	}

	r.printf("\n%s\n", ex.Assistant.Content)
	if ex.Assistant.ConfidenceScore != nil {
		r.printf("\n(confidence %.0f%%)\n", *ex.Assistant.ConfidenceScore*100)
	}
	if len(ex.Assistant.Sources) > 0 {
		r.printf("Sources: %s\n", strings.Join(ex.Assistant.Sources, "; "))
	}
	if !r.authenticated() {
		r.printf("Guest queries remaining: %d\n", r.machine.Quota().Remaining())
	}
	r.printf("\n")
}

// --- Auth ---

func (r *repl) signup(ctx context.Context) {
	if r.client == nil {
		r.printf("Accounts are unavailable in offline mode.\n")
		return
	}
	fullName, _ := r.prompt("Full name: ")
	email, _ := r.prompt("Email: ")
	password, _ := r.readSecret("Password: ")
	confirm, _ := r.readSecret("Confirm password: ")

	if err := apiclient.ValidateSignupForm(fullName, email, password, confirm, auth.CheckPasswordPolicy); err != nil {
		r.printf("%s\n", describe(err))
		return
	}

	resp, err := r.client.Signup(ctx, email, password, fullName)
	if err != nil {
		r.printf("Signup failed: %s\n", describe(err))
		return
	}
	r.printf("Welcome, %s.\n", resp.FullName)
	r.sync(ctx)
}

func (r *repl) login(ctx context.Context) {
	if r.client == nil {
		r.printf("Accounts are unavailable in offline mode.\n")
		return
	}
	email, _ := r.prompt("Email: ")
	password, _ := r.readSecret("Password: ")

	if err := apiclient.ValidateLoginForm(email, password); err != nil {
		r.printf("%s\n", describe(err))
		return
	}

	resp, err := r.client.Login(ctx, email, password)
	if err != nil {
		r.printf("Login failed: %s\n", describe(err))
		return
	}
	r.printf("Signed in as %s.\n", resp.Email)
	r.sync(ctx)
}

func (r *repl) logout(ctx context.Context) {
	if r.client == nil || !r.client.IsAuthenticated() {
		r.printf("Not signed in.\n")
		return
	}
	if err := r.client.Logout(ctx); err != nil {
		r.printf("Signed out locally; the server reported: %s\n", describe(err))
	} else {
		r.printf("Signed out.\n")
	}
	r.machine.Reset()
	r.sync(ctx)
}

// sync reconciles the local state with the server, reporting but not
// failing on errors.
func (r *repl) sync(ctx context.Context) {
	if r.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.machine.Sync(ctx, r.client); err != nil {
		r.printf("Could not sync with the server: %s\n", describe(err))
	}
}

// --- Conversations ---

func (r *repl) list() {
	convs := r.machine.Conversations()
	if len(convs) == 0 {
		r.printf("No conversations yet. Ask a question to start one.\n")
		return
	}
	active, _ := r.machine.ActiveConversation()
	for i, c := range convs {
		marker := " "
		if c.ID == active.ID {
			marker = "*"
		}
		r.printf("%s %d. %s (%d messages)\n", marker, i+1, c.Title, len(c.Messages))
	}
}

func (r *repl) open(ctx context.Context, arg string) {
	if arg == "" {
		r.printf("Usage: /open <n|id>\n")
		return
	}
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		convs := r.machine.Conversations()
		if n < 1 || n > len(convs) {
			r.printf("No conversation %d.\n", n)
			return
		}
		id = convs[n-1].ID
	}
	if !r.machine.SelectConversation(id) {
		r.printf("No conversation %s.\n", id)
		return
	}

	if r.client != nil && r.authenticated() {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		if err := r.machine.LoadConversation(ctx, r.client, id); err != nil {
			r.printf("Could not load messages from the server: %s\n", describe(err))
		}
	}

	conv, _ := r.machine.ActiveConversation()
	r.printf("== %s ==\n", conv.Title)
	for _, m := range conv.Messages {
		r.printf("[%s] %s\n\n", m.Role, m.Content)
	}
}

// --- Output helpers ---

func (r *repl) printStatus() {
	if r.client == nil {
		r.printf("Offline mode: answers come from the built-in examples.\n")
	}
	if r.authenticated() {
		r.printf("Signed in.\n")
		return
	}
	r.printQuota()
}

func (r *repl) printQuota() {
	if r.authenticated() {
		r.printf("Signed in: no query limit.\n")
		return
	}
	q := r.machine.Quota()
	r.printf("Guest mode: %d of %d queries remaining.\n", q.Remaining(), q.Limit)
}

func (r *repl) authenticated() bool {
	return r.client != nil && r.client.IsAuthenticated()
}

func (r *repl) prompt(label string) (string, error) {
	r.printf("%s", label)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.in.Text()), nil
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// describe renders the client error taxonomy for the terminal.
func describe(err error) string {
	var (
		ve *apiclient.ValidationError
		ne *apiclient.NetworkError
		ae *apiclient.AuthError
		fe *apiclient.FetchError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ne):
		return "could not reach the server (" + ne.Message + ")"
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &fe):
		return fe.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out"
	default:
		return err.Error()
	}
}
