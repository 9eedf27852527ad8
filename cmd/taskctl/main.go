package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/iranadryan/task-manager/pkg/api/client"
	"github.com/iranadryan/task-manager/pkg/config"
)

type cliConfig struct {
	APIBaseURL  string `json:"api_base_url"`
	AccessToken string `json:"access_token"`
}

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = commandRegister(args)
	case "login":
		err = commandLogin(args)
	case "logout":
		err = commandLogout(args)
	case "me":
		err = commandMe()
	case "tasks":
		err = commandTasks(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func requestTimeout() time.Duration {
	return time.Duration(config.GetInt("TASKCTL_TIMEOUT_SECONDS", 15)) * time.Second
}

func readPassword(flagValue string) (string, error) {
	if secret := strings.TrimSpace(flagValue); secret != "" {
		return secret, nil
	}
	fmt.Print("Password: ")
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func commandRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	age := fs.Int("age", 0, "Age")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	resp, err := client.Register(ctx, apiclient.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: secret,
		Age:      *age,
	})
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("account created: %s (%s)\n", resp.User.ID, resp.User.Email)
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readPassword(*password)
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	resp, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.AccessToken = resp.Token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	all := fs.Bool("all", false, "Revoke every session of the account")
	fs.Parse(args)

	cfg, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	if *all {
		err = client.LogoutAll(ctx, token)
	} else {
		err = client.Logout(ctx, token)
	}
	if err != nil {
		return err
	}
	cfg.AccessToken = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func commandMe() error {
	_, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	user, err := client.Me(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\tage=%d\n", user.ID, user.Name, user.Email, user.Age)
	return nil
}

func commandTasks(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: taskctl tasks [list|add|done|rm]")
	}
	sub := args[0]
	switch sub {
	case "list":
		return tasksList(args[1:])
	case "add":
		return tasksAdd(args[1:])
	case "done":
		return tasksDone(args[1:])
	case "rm":
		return tasksRemove(args[1:])
	default:
		return fmt.Errorf("unknown tasks command: %s", sub)
	}
}

func tasksList(args []string) error {
	fs := flag.NewFlagSet("tasks list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (open|done)")
	limit := fs.Int("limit", 0, "Maximum number of tasks")
	skip := fs.Int("skip", 0, "Number of tasks to skip")
	sort := fs.String("sort", "", "Sort order, e.g. createdAt:desc")
	fs.Parse(args)

	input := apiclient.ListTasksInput{Limit: *limit, Skip: *skip, Sort: *sort}
	switch strings.ToLower(strings.TrimSpace(*status)) {
	case "":
	case "open":
		open := false
		input.Completed = &open
	case "done":
		done := true
		input.Completed = &done
	default:
		return fmt.Errorf("unknown status: %s", *status)
	}

	_, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	tasks, err := client.ListTasks(ctx, token, input)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %s\t%s\t%s\n", mark, t.ID, t.Description, t.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func tasksAdd(args []string) error {
	fs := flag.NewFlagSet("tasks add", flag.ExitOnError)
	fs.Parse(args)
	description := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if description == "" {
		return errors.New("usage: taskctl tasks add <description>")
	}

	_, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	task, err := client.CreateTask(ctx, token, description)
	if err != nil {
		return err
	}
	fmt.Printf("task created: %s\n", task.ID)
	return nil
}

func tasksDone(args []string) error {
	fs := flag.NewFlagSet("tasks done", flag.ExitOnError)
	undo := fs.Bool("undo", false, "Mark the task as open again")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: taskctl tasks done [--undo] <task-id>")
	}

	_, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	task, err := client.SetTaskCompleted(ctx, token, fs.Arg(0), !*undo)
	if err != nil {
		return err
	}
	fmt.Printf("task %s completed=%t\n", task.ID, task.Completed)
	return nil
}

func tasksRemove(args []string) error {
	fs := flag.NewFlagSet("tasks rm", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: taskctl tasks rm <task-id>")
	}

	_, client, token, err := authenticated()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	task, err := client.DeleteTask(ctx, token, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("task deleted: %s\n", task.ID)
	return nil
}

func clientFor(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, nil, err
	}
	if base := strings.TrimSpace(apiBase); base != "" {
		cfg.APIBaseURL = base
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func authenticated() (cliConfig, *apiclient.Client, string, error) {
	cfg, client, err := clientFor("")
	if err != nil {
		return cliConfig{}, nil, "", err
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return cliConfig{}, nil, "", errors.New("please login first using 'taskctl login'")
	}
	return cfg, client, token, nil
}

func loadConfig() (cliConfig, error) {
	fallback := config.GetString("TASKCTL_API_URL", apiclient.DefaultBaseURL)
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: fallback}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = fallback
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "taskctl", "config.json"), nil
}

func printUsage() {
	fmt.Printf("taskctl %s\n\n", buildVersion)
	fmt.Print(`Usage:
	taskctl register --name Lucas --email user@example.com [--password secret] [--age N] [--api http://localhost:4000]
	taskctl login --email user@example.com [--password secret] [--api http://localhost:4000]
	taskctl logout [--all]
	taskctl me
	taskctl tasks list [--status open|done] [--limit N] [--skip N] [--sort field:asc|desc]
	taskctl tasks add <description>
	taskctl tasks done [--undo] <task-id>
	taskctl tasks rm <task-id>
	taskctl version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
