// Package toolbundle implements the Tool Bundle (C8): materializing, per
// role, the subset of a tool registry permitted by the capability matrix,
// with stable prompt formatting. Grounded on the teacher's internal/tools
// registry-iteration pattern (descriptor table filtered and rendered for
// prompt inclusion), generalized to filter by capability.Matrix access
// instead of the teacher's static feature flags.
package toolbundle

import (
	"fmt"
	"sort"
	"strings"

	"codenerd/internal/capability"
	"codenerd/internal/coreerr"
)

// Descriptor is a single tool's registry entry (§3 Tool Descriptor).
type Descriptor struct {
	Name              string
	Category          capability.Category
	Description       string
	InherentReadOnly  bool
}

// Registry is the full catalog of tool descriptors available to the
// core, independent of any role.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry builds a Registry from a descriptor slice.
func NewRegistry(descriptors []Descriptor) *Registry {
	return &Registry{descriptors: descriptors}
}

// Bundle is the per-role materialized view of the Registry (§3 Tool
// Bundle): role, tools by name, and the role's permitted categories.
type Bundle struct {
	Role                Role
	tools               map[string]resolvedDescriptor
	PermittedCategories []capability.Category
	order               []string // stable category-then-name ordering
}

// Role aliases capability.Role for readability at this layer.
type Role = capability.Role

type resolvedDescriptor struct {
	Descriptor
	ReadOnly bool
}

// BuildBundle iterates the registry, including a descriptor iff the
// matrix access for its category is permitted for role. A descriptor is
// marked read-only iff its category access is ReadOnly or it is
// inherently read-only.
func BuildBundle(role Role, matrix *capability.Matrix, registry *Registry) *Bundle {
	b := &Bundle{
		Role:                role,
		tools:               make(map[string]resolvedDescriptor),
		PermittedCategories: matrix.PermittedCategories(role),
	}

	for _, d := range registry.descriptors {
		level := matrix.AccessLevel(role, d.Category)
		if !level.Permitted() {
			continue
		}
		readOnly := d.InherentReadOnly || level == capability.AccessReadOnly
		b.tools[d.Name] = resolvedDescriptor{Descriptor: d, ReadOnly: readOnly}
		b.order = append(b.order, d.Name)
	}

	sort.Slice(b.order, func(i, j int) bool {
		di, dj := b.tools[b.order[i]], b.tools[b.order[j]]
		if di.Category != dj.Category {
			return di.Category < dj.Category
		}
		return di.Name < dj.Name
	})

	return b
}

// HasTool reports whether the bundle includes the named tool.
func (b *Bundle) HasTool(name string) bool {
	_, ok := b.tools[name]
	return ok
}

// ValidateRequest returns the descriptor for name if the bundle includes
// it, or a BundleViolation otherwise.
func (b *Bundle) ValidateRequest(name string) (Descriptor, *coreerr.Error) {
	rd, ok := b.tools[name]
	if !ok {
		return Descriptor{}, coreerr.New(coreerr.KindBundleViolation, "tool not in bundle", map[string]any{
			"role": b.Role, "tool_name": name,
		})
	}
	return rd.Descriptor, nil
}

// FormatForPrompt renders the bundle in stable category-then-name order
// for prompt inclusion.
func (b *Bundle) FormatForPrompt() string {
	var sb strings.Builder
	for _, name := range b.order {
		rd := b.tools[name]
		tag := ""
		if rd.ReadOnly {
			tag = " [read-only]"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s)%s: %s\n", rd.Name, rd.Category, tag, rd.Description))
	}
	return sb.String()
}

// ToolsInCategory returns the names of bundled tools in a category.
func (b *Bundle) ToolsInCategory(cat capability.Category) []string {
	var out []string
	for _, name := range b.order {
		if b.tools[name].Category == cat {
			out = append(out, name)
		}
	}
	return out
}

// ReadOnlyTools returns the names of every read-only tool in the bundle.
func (b *Bundle) ReadOnlyTools() []string {
	var out []string
	for _, name := range b.order {
		if b.tools[name].ReadOnly {
			out = append(out, name)
		}
	}
	return out
}

// MutationTools returns the names of every non-read-only tool in the
// bundle.
func (b *Bundle) MutationTools() []string {
	var out []string
	for _, name := range b.order {
		if !b.tools[name].ReadOnly {
			out = append(out, name)
		}
	}
	return out
}
