// ABOUTME: Admin CLI for controldesk account and control card management
// ABOUTME: Talks to the embedded store in-process using a config file and token

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/controldesk/controldesk/internal/auth"
	"github.com/controldesk/controldesk/internal/config"
	"github.com/controldesk/controldesk/internal/service"
	"github.com/controldesk/controldesk/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfgPath := os.Getenv("CONTROLDESK_CONFIG")
	if cfgPath == "" {
		cfgPath = "controldesk.yaml"
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	svc, err := buildService(cfgPath)
	if err == nil {
		defer func() { _ = svc.Disconnect() }()
		err = runCommand(svc, cmd, args)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func buildService(cfgPath string) (*service.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	svc := service.New(store.New(), auth.NewTokenService([]byte(cfg.Auth.JWTSecret)))
	if err := svc.Connect(cfg.Database.Path); err != nil {
		return nil, err
	}
	return svc, nil
}

func runCommand(svc *service.Service, cmd string, args []string) error {
	ctx := context.Background()

	switch cmd {
	case "bootstrap":
		return cmdBootstrap(ctx, svc, args)
	case "login":
		return cmdLogin(ctx, svc, args)
	case "me":
		return cmdMe(ctx, svc)
	case "accounts":
		return cmdAccounts(ctx, svc)
	case "cards":
		return cmdCards(ctx, svc)
	case "card":
		return cmdCard(ctx, svc, args)
	case "next-number":
		return cmdNextNumber(ctx, svc, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
		return nil
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Println("controldesk-admin")
	fmt.Println()
	fmt.Println("Usage: controldesk-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  bootstrap <username>    Create the first admin account (empty database only)")
	fmt.Println("  login <username>        Log in and print a bearer token")
	fmt.Println("  me                      Show the account behind CONTROLDESK_TOKEN")
	fmt.Println("  accounts                List all accounts (admin)")
	fmt.Println("  cards                   List control cards visible to the caller")
	fmt.Println("  card <id>               Show a single control card")
	fmt.Println("  next-number <year>      Suggest the next card number for a year")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  CONTROLDESK_CONFIG      Config file path (default: controldesk.yaml)")
	fmt.Println("  CONTROLDESK_TOKEN       Bearer token for authenticated commands")
}

func getToken() (string, error) {
	token := os.Getenv("CONTROLDESK_TOKEN")
	if token == "" {
		return "", fmt.Errorf("CONTROLDESK_TOKEN is not set (run 'login' first)")
	}
	return token, nil
}

// promptPassword reads a password from stdin without echoing arguments on
// the command line.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func cmdBootstrap(ctx context.Context, svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bootstrap <username>")
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	id, err := svc.CreateFirstAdmin(ctx, args[0], password)
	if err != nil {
		return err
	}
	color.Green("Created admin account %q (id %d)\n", args[0], id)
	return nil
}

func cmdLogin(ctx context.Context, svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: login <username>")
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	token, err := svc.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func cmdMe(ctx context.Context, svc *service.Service) error {
	token, err := getToken()
	if err != nil {
		return err
	}

	account, err := svc.CurrentAccount(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("%s (id %d, role %s)\n", account.Username, account.ID, account.Role)
	return nil
}

func cmdAccounts(ctx context.Context, svc *service.Service) error {
	token, err := getToken()
	if err != nil {
		return err
	}

	accounts, err := svc.ListAccounts(ctx, token)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
	for _, a := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Username, a.Role, a.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func cmdCards(ctx context.Context, svc *service.Service) error {
	token, err := getToken()
	if err != nil {
		return err
	}

	cards, err := svc.ListCards(ctx, token)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tYEAR\tNO\tEXECUTOR\tREPORTER\tSUMMARY")
	for _, c := range cards {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n", c.ID, c.Year, c.CardNumber, c.Executor, c.Reporter, truncate(c.Summary, 48))
	}
	return w.Flush()
}

func cmdCard(ctx context.Context, svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: card <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid card id %q", args[0])
	}
	token, err := getToken()
	if err != nil {
		return err
	}

	card, err := svc.GetCard(ctx, id, token)
	if err != nil {
		return err
	}

	fmt.Printf("Card %d/%d (id %d)\n", card.CardNumber, card.Year, card.ID)
	fmt.Printf("  Executor:  %s\n", card.Executor)
	fmt.Printf("  Reporter:  %s\n", card.Reporter)
	fmt.Printf("  Summary:   %s\n", card.Summary)
	fmt.Printf("  Document:  %s\n", card.DocumentReference)
	if card.ExecutionDeadline != "" {
		fmt.Printf("  Deadline:  %s\n", card.ExecutionDeadline)
	}
	if card.ExtendedDeadline != "" {
		fmt.Printf("  Extended:  %s\n", card.ExtendedDeadline)
	}
	if card.Resolution != "" {
		fmt.Printf("  Resolution: %s\n", card.Resolution)
	}
	if card.Controller != "" {
		fmt.Printf("  Controller: %s\n", card.Controller)
	}
	if card.Department != "" {
		fmt.Printf("  Department: %s\n", card.Department)
	}
	return nil
}

func cmdNextNumber(ctx context.Context, svc *service.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: next-number <year>")
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid year %q", args[0])
	}

	n, err := svc.NextCardNumber(ctx, year)
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
