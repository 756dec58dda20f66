package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
)

const (
	// LogLevelKey is one of trace, debug, info, warn, error, disabled
	LogLevelKey = "LOG_LEVEL"
	// LogJSONKey switches console logs from colored text to JSON
	LogJSONKey = "LOG_JSON"
	// LogFileKey is an optional file that receives JSON logs as well
	LogFileKey = "LOG_FILE"
	// CoinKey selects the default network profile (zec, zel, taz or their aliases)
	CoinKey = "COIN"
	// LenientCoinKey makes unknown coin ids fall back to the primary profile
	// instead of failing
	LenientCoinKey = "LENIENT_COIN"
	// ParamsDirKey is the directory holding the Sapling proving parameters
	ParamsDirKey = "PARAMS_DIR"
	// SpendParamsKey is the spend parameters file, relative to PARAMS_DIR
	// unless absolute
	SpendParamsKey = "SPEND_PARAMS"
	// OutputParamsKey is the output parameters file, relative to PARAMS_DIR
	// unless absolute
	OutputParamsKey = "OUTPUT_PARAMS"

	envPrefix = "ZSAPLINGTX"

	defaultSpendParams  = "sapling-spend.params"
	defaultOutputParams = "sapling-output.params"
)

var vip *viper.Viper
var defaultParamsDir = btcutil.AppDataDir("zcash-params", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix(envPrefix)
	vip.AutomaticEnv()

	vip.SetDefault(LogLevelKey, "info")
	vip.SetDefault(LogJSONKey, false)
	vip.SetDefault(LogFileKey, "")
	vip.SetDefault(CoinKey, network.CoinPrimary.String())
	vip.SetDefault(LenientCoinKey, false)
	vip.SetDefault(ParamsDirKey, defaultParamsDir)
	vip.SetDefault(SpendParamsKey, defaultSpendParams)
	vip.SetDefault(OutputParamsKey, defaultOutputParams)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	return nil
}

// Set overrides a key, typically from a command-line flag.
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetParamsDir() string {
	return GetString(ParamsDirKey)
}

// GetParamsPaths returns the resolved spend and output parameter paths.
func GetParamsPaths() (spend, output string) {
	return resolveParamsPath(GetString(SpendParamsKey)), resolveParamsPath(GetString(OutputParamsKey))
}

// ReadParams loads both parameter files.
func ReadParams() (prover.Params, error) {
	spendPath, outputPath := GetParamsPaths()

	spend, err := os.ReadFile(spendPath)
	if err != nil {
		return prover.Params{}, fmt.Errorf("reading spend params: %w", err)
	}
	output, err := os.ReadFile(outputPath)
	if err != nil {
		return prover.Params{}, fmt.Errorf("reading output params: %w", err)
	}

	params := prover.Params{Spend: spend, Output: output}
	return params, params.Validate()
}

func resolveParamsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetParamsDir(), p)
}

func validate() error {
	if !log.ValidLevel(GetString(LogLevelKey)) {
		return fmt.Errorf("unknown log level %q", GetString(LogLevelKey))
	}

	if !GetBool(LenientCoinKey) {
		if _, err := network.Resolve(GetString(CoinKey)); err != nil {
			return err
		}
	}

	if len(GetParamsDir()) <= 0 {
		return fmt.Errorf("missing params dir")
	}
	if GetString(SpendParamsKey) == "" || GetString(OutputParamsKey) == "" {
		return fmt.Errorf("missing proving parameter file names")
	}

	return nil
}
