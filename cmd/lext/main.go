package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/lext/pkg/config"
	"github.com/umputun/lext/pkg/env"
	"github.com/umputun/lext/pkg/extension"
	"github.com/umputun/lext/pkg/host"
	"github.com/umputun/lext/pkg/logging"
	"github.com/umputun/lext/pkg/secrets"
)

type options struct {
	JobFile string `short:"f" long:"file" env:"LEXT_JOB" description:"job file" default:"lext.yml"`
	Home    string `long:"home" env:"LEXT_HOME" description:"runtime home, job file directory if not set"`

	// overrides
	Tasks  int    `short:"t" long:"tasks" description:"number of tasks"`
	Params string `short:"p" long:"params" description:"extension params, key=value;key=value"`
	Sink   string `long:"sink" description:"results sink" choice:"log" choice:"arrow" choice:"table"`
	Out    string `short:"o" long:"out" description:"output file of arrow sink"`

	// secrets
	SecretsProvider SecretsProvider `group:"secrets" namespace:"secrets" env-namespace:"LEXT_SECRETS"`

	Version bool `long:"version" description:"show version"`

	Dry     bool `long:"dry" description:"dry run, input is echoed without running the script"`
	Verbose bool `short:"v" long:"verbose" description:"verbose mode, show script output"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable colorized output"`
	Dbg     bool `long:"dbg" description:"debug mode"`
}

// SecretsProvider defines secrets provider options, for all supported providers
type SecretsProvider struct {
	Provider string `long:"provider" env:"PROVIDER" description:"secret provider type" choice:"none" choice:"lext" choice:"vault" choice:"ansible" choice:"aws" default:"none"`

	Values map[string]string `long:"value" description:"secret value, key:value, used with none provider"`

	Key  string `long:"key" env:"KEY" description:"secure key for lext secrets provider"`
	Conn string `long:"conn" env:"CONN" description:"connection string for lext secrets provider" default:"lext.db"`

	Vault struct {
		Token string `long:"token" env:"TOKEN" description:"vault token"`
		Path  string `long:"path"  env:"PATH" description:"vault path"`
		URL   string `long:"url" env:"URL" description:"vault url"`
	} `group:"vault" namespace:"vault" env-namespace:"VAULT"`

	Ansible struct {
		Path   string `long:"path" env:"PATH" description:"ansible vault file"`
		Secret string `long:"secret" env:"SECRET" description:"ansible vault password"`
	} `group:"ansible" namespace:"ansible" env-namespace:"ANSIBLE"`

	Aws struct {
		Region    string `long:"region" env:"REGION" description:"aws region"`
		AccessKey string `long:"access-key" env:"ACCESS_KEY" description:"aws access key"`
		SecretKey string `long:"secret-key" env:"SECRET_KEY" description:"aws secret key"`
	} `group:"aws" namespace:"aws" env-namespace:"AWS"`
}

var revision = "latest"

var exitFunc = os.Exit

func main() {
	fmt.Printf("lext %s\n", revision)

	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		exitFunc(1)
		return
	}
	if opts.Version {
		exitFunc(0) // already printed
		return
	}
	color.NoColor = color.NoColor || opts.NoColor
	logging.SetupHost(opts.Dbg)

	if err := run(opts); err != nil {
		if opts.Dbg {
			log.Printf("[ERROR] %v", err)
		}
		fmt.Printf("failed, %v\n", formatErrorString(err.Error()))
		exitFunc(1)
	}
}

func run(opts options) error {
	if opts.Dry {
		msg := color.New(color.FgHiRed).SprintfFunc()("dry run, scripts are not executed and input is echoed\n")
		fmt.Print(msg)
	}

	st := time.Now()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	jobFile, err := expandPath(opts.JobFile)
	if err != nil {
		return fmt.Errorf("can't expand job path %q: %w", opts.JobFile, err)
	}

	secretsProvider, closeSecrets, err := makeSecretsProvider(opts.SecretsProvider)
	if err != nil {
		return fmt.Errorf("can't make secrets provider: %w", err)
	}
	defer closeSecrets()

	overrides := config.Overrides{Tasks: opts.Tasks, Params: opts.Params, Sink: opts.Sink, Out: opts.Out}
	job, err := config.Load(jobFile, &overrides, secretsProvider)
	if err != nil {
		return fmt.Errorf("can't load job %q: %w", jobFile, err)
	}
	if opts.Dry {
		job.Runtime.Params = dryParams(job.Runtime.Params)
	}
	logging.SetupHost(opts.Dbg, job.AllSecretValues()...) // mask secrets in logs

	proc := env.NewProcess()
	home, err := runtimeHome(opts, job, jobFile)
	if err != nil {
		return err
	}
	if err = proc.Set(env.HomeEnv, home); err != nil {
		return fmt.Errorf("can't set runtime home: %w", err)
	}

	out := logging.NewWriter(os.Stdout, opts.Verbose || job.Sink.Kind == config.SinkLog, color.NoColor, job.AllSecretValues())
	ext := extension.New(proc, out)
	pathList := string(os.PathListSeparator)
	if err = ext.Init(job.Runtime.Params, strings.Join(job.Runtime.PublicLibs, pathList),
		strings.Join(job.Runtime.PrivateLibs, pathList)); err != nil {
		return fmt.Errorf("can't init extension: %w", err)
	}
	defer func() {
		if e := ext.Cleanup(); e != nil {
			log.Printf("[WARN] can't cleanup extension: %v", e)
		}
	}()

	in, err := host.ReadSource(ctx, job)
	if err != nil {
		return fmt.Errorf("can't read source: %w", err)
	}

	sink, err := host.NewSink(job, out)
	if err != nil {
		return fmt.Errorf("can't make sink: %w", err)
	}
	r := host.Runner{Ext: ext, Job: job, Sink: sink}
	res, runErr := r.Run(ctx, in)
	if err = sink.Close(); err != nil {
		log.Printf("[WARN] can't close sink: %v", err)
	}
	printSummary(res, time.Since(st))
	if runErr != nil {
		return fmt.Errorf("can't run tasks: %w", runErr)
	}
	log.Printf("[INFO] completed %d tasks in %v", len(res.Tasks), time.Since(st).Truncate(100*time.Millisecond))
	return nil
}

// printSummary shows per-task counts and output parameters
func printSummary(res host.Result, elapsed time.Duration) {
	hdr := color.New(color.FgHiGreen).SprintfFunc()
	task := color.New(color.FgHiCyan).SprintfFunc()
	fmt.Print(hdr("completed: tasks:%d, rows in:%d, rows out:%d in %v\n",
		len(res.Tasks), res.RowsIn, res.RowsOut, elapsed.Truncate(100*time.Millisecond)))
	for _, tr := range res.Tasks {
		params := make([]string, 0, len(tr.Params))
		for k, v := range tr.Params {
			params = append(params, fmt.Sprintf("%s=%v", k, v))
		}
		line := fmt.Sprintf(" task %d: rows in:%d, rows out:%d, batches:%d in %v", tr.Task, tr.RowsIn, tr.RowsOut,
			tr.Batches, tr.Duration)
		if len(params) > 0 {
			sort.Strings(params)
			line += ", params: " + strings.Join(params, " ")
		}
		fmt.Print(task("%s\n", line))
	}
}

// dryParams forces the dry runtime, other extension params are kept
func dryParams(params string) string {
	res := []string{"runtime=dry"}
	for _, kv := range strings.Split(params, ";") {
		kv = strings.TrimSpace(kv)
		key, _, _ := strings.Cut(kv, "=")
		if kv == "" || strings.EqualFold(strings.TrimSpace(key), "runtime") {
			continue
		}
		res = append(res, kv)
	}
	return strings.Join(res, ";")
}

// runtimeHome picks runtime home from cli, job file, or the job file directory
func runtimeHome(opts options, job *config.Job, jobFile string) (string, error) {
	home := opts.Home
	if home == "" {
		home = job.Runtime.Home
	}
	if home == "" {
		home = filepath.Dir(jobFile)
	}
	res, err := expandPath(home)
	if err != nil {
		return "", fmt.Errorf("can't expand runtime home %q: %w", home, err)
	}
	return filepath.Abs(res)
}

// makeSecretsProvider creates secrets provider based on options, the returned func closes it
func makeSecretsProvider(sopts SecretsProvider) (config.SecretsProvider, func(), error) {
	noop := func() {}
	switch sopts.Provider {
	case "none":
		if len(sopts.Values) > 0 {
			return secrets.NewMemoryProvider(sopts.Values), noop, nil
		}
		return &secrets.NoOpProvider{}, noop, nil
	case "lext":
		p, err := secrets.NewDBProvider(sopts.Conn, []byte(sopts.Key))
		if err != nil {
			return nil, noop, err
		}
		return p, func() {
			if e := p.Close(); e != nil {
				log.Printf("[WARN] can't close secrets database: %v", e)
			}
		}, nil
	case "vault":
		p, err := secrets.NewHashiVaultProvider(sopts.Vault.URL, sopts.Vault.Path, sopts.Vault.Token)
		return p, noop, err
	case "ansible":
		p, err := secrets.NewAnsibleVaultProvider(sopts.Ansible.Path, sopts.Ansible.Secret)
		return p, noop, err
	case "aws":
		p, err := secrets.NewAWSSecretsProvider(sopts.Aws.AccessKey, sopts.Aws.SecretKey, sopts.Aws.Region)
		return p, noop, err
	}
	log.Printf("[WARN] unknown secrets provider %q", sopts.Provider)
	return &secrets.NoOpProvider{}, noop, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		usr, err := user.Current()
		if err != nil {
			return "", err
		}
		return filepath.Join(usr.HomeDir, path[1:]), nil
	}
	return path, nil
}

// formatErrorString puts every error of a multi-error message on its own line
func formatErrorString(input string) string {
	headerRe := regexp.MustCompile(`(.*: \d+ error\(s\) occurred:)`)
	headerMatch := headerRe.FindStringSubmatch(input)
	if len(headerMatch) == 0 {
		return input
	}

	errorsRe := regexp.MustCompile(`\[\d+] {([^}]+)}`)
	res := fmt.Sprintf("%s\n", strings.TrimSpace(headerMatch[1]))
	for i, match := range errorsRe.FindAllStringSubmatch(input, -1) {
		res += fmt.Sprintf("   [%d] %s\n", i, strings.TrimSpace(match[1]))
	}
	return res
}
