package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/eventpass/companion-sdk/pkg/api"
	"github.com/eventpass/companion-sdk/pkg/cache"
	"github.com/eventpass/companion-sdk/pkg/storage"
)

func getPFlag(cmd CompanionRootCmd, flagName string) *flag.Flag {
	return cmd.RootCmd().PersistentFlags().Lookup(flagName)
}

func assertStringCmdFlag(t *testing.T, cmd CompanionRootCmd, propertyName, flagName, defaultVal string) {
	pflag := getPFlag(cmd, flagName)
	assert.NotNil(t, pflag, "expected flag %s to be registered", flagName)
	assert.Equal(t, "string", pflag.Value.Type())
	assert.Equal(t, defaultVal, viper.GetString(propertyName))
}

func TestRootCmdFlags(t *testing.T) {
	rootCmd := NewRootCmd("companion-cache", "test")

	assertStringCmdFlag(t, rootCmd, "cache.namespace", "cachenamespace", "companion")
	assertStringCmdFlag(t, rootCmd, "cache.schemaVersion", "cacheschemaVersion", "1.0.0")
	assertStringCmdFlag(t, rootCmd, "log.level", "loglevel", "info")
	assertStringCmdFlag(t, rootCmd, "proxy.baseURL", "proxybaseURL", "")
}

func TestRootCmdSubcommands(t *testing.T) {
	rootCmd := NewRootCmd("companion-cache", "test")

	names := map[string]bool{}
	for _, sub := range rootCmd.RootCmd().Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["status"], "expected a status subcommand")
	assert.True(t, names["clear"], "expected a clear subcommand")
	assert.True(t, names["fetch"], "expected a fetch subcommand")
}

func TestStatusCmd(t *testing.T) {
	dir := t.TempDir()

	// seed the cache directory with one table
	store, err := storage.NewFileStore(dir)
	assert.Nil(t, err)
	seeded := cache.New(cache.Config{Namespace: "companion", SchemaVersion: "1.0.0"}, store)
	api.RegisterDefaultTables(seeded)
	err = seeded.Set(api.TableSponsors, []interface{}{map[string]interface{}{"id": "s1"}})
	assert.Nil(t, err)

	rootCmd := NewRootCmd("companion-cache", "test")
	out := new(bytes.Buffer)
	rootCmd.RootCmd().SetOut(out)
	rootCmd.RootCmd().SetArgs([]string{"status", "--cachestoragePath", dir})

	err = rootCmd.Execute()
	assert.Nil(t, err)

	var status cache.HealthStatus
	err = json.Unmarshal(out.Bytes(), &status)
	assert.Nil(t, err, "status output should be valid json")
	assert.Len(t, status.Keys, 1)
	assert.Equal(t, 0, status.InvalidCount)
}

func TestClearCmd(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewFileStore(dir)
	assert.Nil(t, err)
	seeded := cache.New(cache.Config{Namespace: "companion", SchemaVersion: "1.0.0"}, store)
	api.RegisterDefaultTables(seeded)
	err = seeded.Set(api.TableSponsors, []interface{}{map[string]interface{}{"id": "s1"}})
	assert.Nil(t, err)

	rootCmd := NewRootCmd("companion-cache", "test")
	rootCmd.RootCmd().SetArgs([]string{"clear", "--cachestoragePath", dir})
	err = rootCmd.Execute()
	assert.Nil(t, err)

	keys, err := store.Keys("companion_")
	assert.Nil(t, err)
	assert.Empty(t, keys, "clear should remove every namespaced key")
}
