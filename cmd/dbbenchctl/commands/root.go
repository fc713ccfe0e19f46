package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dbbenchtools/pkg/dbbench"
)

var rootCmd = &cobra.Command{
	Use:          "dbbenchctl",
	Short:        "Run and compare dbbench workloads",
	SilenceUsage: true,
}

var (
	flagHost     = ""
	flagPort     = ""
	flagUser     = ""
	flagPassword = ""
	flagDatabase = ""
	flagDriver   = ""

	flagExecutable    = ""
	flagWorkDir       = ""
	flagKeepArtifacts = false
	flagTimeout       = time.Duration(0)
	flagVerbose       = false
)

func init() {
	viper.SetEnvPrefix("DBBENCH")
	viper.AutomaticEnv()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", "", "Database host (default localhost)")
	pf.StringVar(&flagPort, "port", "", "Database port (default 3306)")
	pf.StringVarP(&flagUser, "user", "u", "", "Database user (default root)")
	pf.StringVarP(&flagPassword, "password", "p", "", "Database password")
	pf.StringVarP(&flagDatabase, "database", "d", "", "Database name")
	pf.StringVar(&flagDriver, "driver", "", "Database driver (default mysql)")

	pf.StringVar(&flagExecutable, "executable", "", "Path to the dbbench executable")
	pf.StringVar(&flagWorkDir, "workdir", "", "Directory for generated workload files")
	pf.BoolVar(&flagKeepArtifacts, "keep-artifacts", false, "Keep generated workload and stats files")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Maximum duration of a single dbbench invocation")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}
}

func Execute() error {
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(abtestCmd())
	rootCmd.AddCommand(statstestCmd())
	rootCmd.AddCommand(agentCmd())
	return rootCmd.Execute()
}

// envOrFlag prefers the flag value and falls back to the DBBENCH_*
// environment.
func envOrFlag(flag, env string) string {
	if flag != "" {
		return flag
	}
	return viper.GetString(env)
}

func connSpec() (dbbench.ConnSpec, error) {
	return dbbench.NewConnSpec(
		envOrFlag(flagHost, "host"),
		envOrFlag(flagPort, "port"),
		envOrFlag(flagUser, "user"),
		envOrFlag(flagPassword, "password"),
		envOrFlag(flagDatabase, "database"),
		envOrFlag(flagDriver, "driver"),
	)
}

func newRunner() (*dbbench.Runner, error) {
	executable, err := dbbench.ResolveExecutable(envOrFlag(flagExecutable, "path"))
	if err != nil {
		return nil, err
	}
	return &dbbench.Runner{
		Executable:    executable,
		WorkDir:       flagWorkDir,
		KeepArtifacts: flagKeepArtifacts,
		Timeout:       flagTimeout,
	}, nil
}

func readConfigFile[T any](file, selector string) (cfg T, err error) {
	var in *os.File
	if file == "" || file == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(file)
		if err != nil {
			return cfg, fmt.Errorf("open config file: %w", err)
		}
		defer in.Close()
	}

	if selector != "" {
		var path *yaml.Path
		path, err = yaml.PathString(fmt.Sprintf("$.%s", selector))
		if err != nil {
			panic(err)
		}

		err = path.Read(in, &cfg)
	} else {
		err = yaml.NewDecoder(in).Decode(&cfg)
	}

	if err != nil {
		return cfg, fmt.Errorf("decode yaml config file: %w", err)
	}
	return cfg, nil
}
