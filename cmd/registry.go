package cmd

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/letsencrypt/validator/v10"
)

// ConfigValidator pairs a pointer to a config struct with any custom
// validation functions its validate tags refer to.
type ConfigValidator struct {
	Config     interface{}
	Validators map[string]validator.Func
}

// Subcommand is one tool reachable through the crlkit binary, either as
// "crlkit <Name>" or through a symlink called Name.
type Subcommand struct {
	Name string
	// Summary is the one-line description printed by "crlkit --list".
	Summary string
	Run     func()
	// Config, when set, is a pointer to the tool's config struct. Files
	// passed with --config are validated against a fresh copy of it before
	// Run is called.
	Config     interface{}
	Validators map[string]validator.Func
}

// ConfigValidator returns a validator over a zero copy of the subcommand's
// config struct, or nil if it takes no config file.
func (sc Subcommand) ConfigValidator() *ConfigValidator {
	if sc.Config == nil {
		return nil
	}
	fresh := reflect.New(reflect.TypeOf(sc.Config).Elem()).Interface()
	return &ConfigValidator{Config: fresh, Validators: sc.Validators}
}

var registry struct {
	sync.Mutex
	subcommands map[string]Subcommand
}

// Register adds sc to the set of subcommands. It panics if sc has no name or
// Run func, if Config is not a pointer, or if the name is already taken, since
// all of those are programming errors caught at init time.
func Register(sc Subcommand) {
	if sc.Name == "" || sc.Run == nil {
		panic(fmt.Sprintf("subcommand %q must have a name and a Run func", sc.Name))
	}
	if sc.Config != nil && reflect.TypeOf(sc.Config).Kind() != reflect.Pointer {
		panic(fmt.Sprintf("config for subcommand %q must be a pointer, got %T", sc.Name, sc.Config))
	}

	registry.Lock()
	defer registry.Unlock()
	if registry.subcommands == nil {
		registry.subcommands = make(map[string]Subcommand)
	}
	_, ok := registry.subcommands[sc.Name]
	if ok {
		panic(fmt.Sprintf("subcommand %q was registered twice", sc.Name))
	}
	registry.subcommands[sc.Name] = sc
}

// Lookup returns the subcommand registered under name.
func Lookup(name string) (Subcommand, bool) {
	registry.Lock()
	defer registry.Unlock()
	sc, ok := registry.subcommands[name]
	return sc, ok
}

// Subcommands returns every registered subcommand, sorted by name.
func Subcommands() []Subcommand {
	registry.Lock()
	defer registry.Unlock()
	return slices.SortedFunc(maps.Values(registry.subcommands), func(a, b Subcommand) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
