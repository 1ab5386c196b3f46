package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/natserract/dotmailer/pkg/config"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/natserract/dotmailer/pkg/soap"
	"go.uber.org/zap"
)

// Usage: rawcall OPERATION [name=value ...]
//
// Values that parse as integers are sent as integers, true/false as
// booleans, everything else as strings.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rawcall OPERATION [name=value ...]")
		os.Exit(2)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	client, err := dotmailer.NewFromConfig(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create client: %v\n", err)
		os.Exit(1)
	}

	params, err := parseParams(os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err = client.Call(ctx, os.Args[1], params)

	fmt.Println("--- request")
	fmt.Println(string(client.LastRequest()))
	fmt.Println("--- response")
	fmt.Println(string(client.LastResponse()))

	if err != nil {
		if fault := client.LastFault(); fault != nil {
			fmt.Fprintf(os.Stderr, "Fault %s: %s\n", fault.Code, fault.String)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseParams(args []string) (soap.Params, error) {
	params := make(soap.Params, 0, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q is not name=value", arg)
		}
		params = append(params, soap.Param{Name: name, Value: parseValue(value)})
	}
	return params, nil
}

func parseValue(s string) any {
	if n, err := dotmailer.ParseID(s); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
