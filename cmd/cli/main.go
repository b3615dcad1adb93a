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
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fundctl",
		Short: "Savings fund back-office CLI",
		Long:  `A command line interface for the savings fund ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the fund API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	navCmd := &cobra.Command{
		Use:   "nav",
		Short: "Calculate the net asset value",
		Run: func(cmd *cobra.Command, args []string) {
			date, _ := cmd.Flags().GetString("date")
			fund, _ := cmd.Flags().GetString("fund")
			path := "/api/v1/nav"
			sep := "?"
			if fund != "" {
				path += sep + "fund=" + fund
				sep = "&"
			}
			if date != "" {
				path += sep + "date=" + date
			}
			get(path)
		},
	}
	navCmd.Flags().String("date", "", "Valuation date (YYYY-MM-DD)")
	navCmd.Flags().String("fund", "", "Fund name")
	rootCmd.AddCommand(navCmd)

	paymentCmd := &cobra.Command{
		Use:   "payment",
		Short: "Payment operations",
	}
	paymentGetCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a payment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/payments/" + args[0])
		},
	}
	paymentCancelCmd := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Request cancellation of a payment",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/payments/"+args[0]+"/cancel", nil)
		},
	}
	paymentCmd.AddCommand(paymentGetCmd, paymentCancelCmd)
	rootCmd.AddCommand(paymentCmd)

	redemptionCmd := &cobra.Command{
		Use:   "redemption",
		Short: "Redemption operations",
	}
	redemptionGetCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a redemption request",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/redemptions/" + args[0])
		},
	}
	redemptionCancelCmd := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Request cancellation of a redemption",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/redemptions/"+args[0]+"/cancel", nil)
		},
	}
	redemptionCmd.AddCommand(redemptionGetCmd, redemptionCancelCmd)
	rootCmd.AddCommand(redemptionCmd)

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Ledger account operations",
	}
	balanceCmd := &cobra.Command{
		Use:   "balance [id]",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/accounts/" + args[0] + "/balance")
		},
	}
	entriesCmd := &cobra.Command{
		Use:   "entries [id]",
		Short: "List an account's entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/accounts/" + args[0] + "/entries")
		},
	}
	accountCmd.AddCommand(balanceCmd, entriesCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func post(path string, payload any) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(raw)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", body)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
