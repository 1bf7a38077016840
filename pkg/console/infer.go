package console

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/OptimiLabs/velocity-sub007/pkg/settings"
)

// InferProvider resolves the provider tag for a session. Precedence: the
// declared tag, then the terminal launch command, then the model naming
// convention, then the configured primary provider.
func InferProvider(declared, command, model string, s settings.Provider) string {
	if declared != "" {
		return declared
	}

	names := s.ProviderNames()
	sort.Strings(names)

	// The command may be an absolute path with arguments, or all
	// whitespace; match on the base name of its first field.
	if fields := strings.Fields(command); len(fields) > 0 {
		base := filepath.Base(fields[0])
		for _, name := range names {
			if filepath.Base(s.ProviderCommand(name)) == base {
				return name
			}
		}
	}

	if model != "" {
		for _, name := range names {
			for _, prefix := range s.ModelPrefixes(name) {
				if strings.HasPrefix(model, prefix) {
					return name
				}
			}
		}
	}

	return s.PrimaryProvider()
}
