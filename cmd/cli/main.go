package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/auth"
)

var (
	baseURL string
	token   string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "treasuryctl",
		Short: "Treasury admin CLI",
		Long:  `A command line interface for operating the treasury API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the treasury API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("TREASURY_TOKEN"), "Bearer token for authenticated requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(consistencyCommand())
	rootCmd.AddCommand(loanCommand())
	rootCmd.AddCommand(orderCommand())
	rootCmd.AddCommand(accountCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func consistencyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Run the ledger consistency cross-check",
		Run: func(cmd *cobra.Command, args []string) {
			status, body := request(http.MethodGet, "/api/v1/consistency", nil)
			if status != http.StatusOK {
				fmt.Printf("Consistency check FAILED (Status: %d)\n%s\n", status, string(body))
				os.Exit(1)
			}

			fmt.Println("Consistency check PASSED")
			printBody(body)
		},
	}
}

func loanCommand() *cobra.Command {
	loanCmd := &cobra.Command{
		Use:   "loan",
		Short: "Loan adjudication",
	}

	loanCmd.AddCommand(&cobra.Command{
		Use:   "approve <loan-id>",
		Short: "Approve and disburse a pending loan",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mustOK(request(http.MethodPost, "/api/v1/loans/"+args[0]+"/approve", nil))
		},
	})

	var reason string
	rejectCmd := &cobra.Command{
		Use:   "reject <loan-id>",
		Short: "Reject a pending loan",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mustOK(request(http.MethodPost, "/api/v1/loans/"+args[0]+"/reject", map[string]any{
				"reason": reason,
			}))
		},
	}
	rejectCmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")
	loanCmd.AddCommand(rejectCmd)

	return loanCmd
}

func orderCommand() *cobra.Command {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Order adjudication",
	}

	var (
		resolution string
		penalize   string
		points     int
	)
	resolveCmd := &cobra.Command{
		Use:   "resolve <order-id>",
		Short: "Resolve a disputed order",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			body := map[string]any{"resolution": resolution}
			if penalize != "" {
				body["penalize_account_id"] = penalize
				body["penalty_points"] = points
			}
			mustOK(request(http.MethodPost, "/api/v1/orders/"+args[0]+"/resolve", body))
		},
	}
	resolveCmd.Flags().StringVar(&resolution, "resolution", "", "refund_buyer or release_to_seller")
	resolveCmd.Flags().StringVar(&penalize, "penalize", "", "Account ID to penalize")
	resolveCmd.Flags().IntVar(&points, "points", 0, "Score points to deduct")
	orderCmd.AddCommand(resolveCmd)

	return orderCmd
}

func accountCommand() *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account administration",
	}

	var (
		name     string
		verified bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a user account",
		Run: func(cmd *cobra.Command, args []string) {
			mustOK(request(http.MethodPost, "/api/v1/accounts", map[string]any{
				"name":            name,
				"seller_verified": verified,
			}))
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account holder name")
	createCmd.Flags().BoolVar(&verified, "verified", false, "Mark seller as verified")
	accountCmd.AddCommand(createCmd)

	var (
		amount string
		note   string
	)
	depositCmd := &cobra.Command{
		Use:   "deposit <account-id>",
		Short: "Credit an account by administrative decision",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mustOK(request(http.MethodPost, "/api/v1/accounts/"+args[0]+"/deposit", map[string]any{
				"amount": amount,
				"note":   note,
			}))
		},
	}
	depositCmd.Flags().StringVar(&amount, "amount", "", "Amount to credit")
	depositCmd.Flags().StringVar(&note, "note", "", "Audit note")
	accountCmd.AddCommand(depositCmd)

	return accountCmd
}

func tokenCommand() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				fmt.Println("a signing secret is required (--secret or JWT_SECRET)")
				os.Exit(1)
			}

			r := domain.Role(role)
			if !r.IsValid() {
				fmt.Printf("unknown role %q\n", role)
				os.Exit(1)
			}

			manager := auth.NewJWTManager(secret, ttl)
			signed, err := manager.Generate(&domain.User{ID: userID, Email: email, Role: r})
			if err != nil {
				fmt.Printf("failed to generate token: %v\n", err)
				os.Exit(1)
			}

			fmt.Println(signed)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Subject account ID")
	cmd.Flags().StringVar(&email, "email", "", "Subject email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Role claim")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func request(method, path string, payload map[string]any) (int, []byte) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		fmt.Printf("failed to build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func mustOK(status int, body []byte) {
	if status < 200 || status >= 300 {
		fmt.Printf("request failed (Status: %d)\n%s\n", status, string(body))
		os.Exit(1)
	}
	printBody(body)
}

func printBody(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
