package properties

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Properties - Root Command Properties interface for all configs to use for adding and parsing values
type Properties interface {
	// Methods for adding yaml properties and command flag
	AddStringProperty(name string, defaultVal string, description string)
	AddDurationProperty(name string, defaultVal time.Duration, description string)
	AddIntProperty(name string, defaultVal int, description string)
	AddBoolProperty(name string, defaultVal bool, description string)

	// Methods to get the configured properties
	StringPropertyValue(name string) string
	DurationPropertyValue(name string) time.Duration
	IntPropertyValue(name string) int
	BoolPropertyValue(name string) bool
}

type properties struct {
	rootCmd *cobra.Command
}

// NewProperties - Creates a new Properties struct
func NewProperties(rootCmd *cobra.Command) Properties {
	return &properties{
		rootCmd: rootCmd,
	}
}

func (p *properties) bindOrPanic(key string, flg *flag.Flag) {
	if err := viper.BindPFlag(key, flg); err != nil {
		panic(err)
	}
}

func (p *properties) nameToFlagName(name string) string {
	return strings.ReplaceAll(name, ".", "")
}

func (p *properties) AddStringProperty(name string, defaultVal string, description string) {
	if p.rootCmd != nil {
		flagName := p.nameToFlagName(name)
		p.rootCmd.PersistentFlags().String(flagName, defaultVal, description)
		p.bindOrPanic(name, p.rootCmd.PersistentFlags().Lookup(flagName))
	}
}

func (p *properties) AddDurationProperty(name string, defaultVal time.Duration, description string) {
	if p.rootCmd != nil {
		flagName := p.nameToFlagName(name)
		p.rootCmd.PersistentFlags().Duration(flagName, defaultVal, description)
		p.bindOrPanic(name, p.rootCmd.PersistentFlags().Lookup(flagName))
	}
}

func (p *properties) AddIntProperty(name string, defaultVal int, description string) {
	if p.rootCmd != nil {
		flagName := p.nameToFlagName(name)
		p.rootCmd.PersistentFlags().Int(flagName, defaultVal, description)
		p.bindOrPanic(name, p.rootCmd.PersistentFlags().Lookup(flagName))
	}
}

func (p *properties) AddBoolProperty(name string, defaultVal bool, description string) {
	if p.rootCmd != nil {
		flagName := p.nameToFlagName(name)
		p.rootCmd.PersistentFlags().Bool(flagName, defaultVal, description)
		p.bindOrPanic(name, p.rootCmd.PersistentFlags().Lookup(flagName))
	}
}

func (p *properties) StringPropertyValue(name string) string {
	return viper.GetString(name)
}

func (p *properties) DurationPropertyValue(name string) time.Duration {
	return viper.GetDuration(name)
}

func (p *properties) IntPropertyValue(name string) int {
	return viper.GetInt(name)
}

func (p *properties) BoolPropertyValue(name string) bool {
	return viper.GetBool(name)
}
