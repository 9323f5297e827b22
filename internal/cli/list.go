package cli

import (
	"fmt"
	"strings"

	"github.com/on-the-ground/effect_ive_visual/internal/catalog"
	"github.com/spf13/cobra"
)

type exampleInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Variant     string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Description string `json:"description" yaml:"description"`
}

type exampleList []exampleInfo

func (l exampleList) String() string {
	var b strings.Builder
	for _, e := range l {
		fmt.Fprintf(&b, "%-26s %s\n", e.ID, e.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playable examples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			examples := catalog.Examples()
			list := make(exampleList, 0, len(examples))
			for _, e := range examples {
				list = append(list, exampleInfo{
					ID:          e.ID(),
					Name:        e.Name,
					Variant:     e.Variant,
					Description: e.Description,
				})
			}
			return newFormatter(rootOpts, cmd).Success(list)
		},
	}
}
