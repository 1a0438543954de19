// Package capability implements the Capability Matrix & Access Control
// (C7): a total (Role, Category) -> AccessLevel lookup plus prompt-contract
// scanning. Grounded on other_examples' tool_approval.go ToolPolicy /
// ToolApprover pattern (capability -> allowed-tools rule table with an
// audit-style approver), adapted from a string-keyed rule table to a
// total closed-enum matrix as the spec requires.
package capability

import "strings"

// Role is the closed set of agent roles.
type Role string

const (
	RoleCoder    Role = "coder"
	RoleReviewer Role = "reviewer"
	RoleManager  Role = "manager"
	RoleReasoner Role = "reasoner"
)

// AllRoles is the fixed role enumeration, in matrix order.
var AllRoles = []Role{RoleCoder, RoleReviewer, RoleManager, RoleReasoner}

// Category is the closed set of ten tool categories.
type Category string

const (
	CategoryFileMutation       Category = "file_mutation"
	CategoryFileRead           Category = "file_read"
	CategoryShellExec          Category = "shell_exec"
	CategoryVerifier           Category = "verifier"
	CategoryAstAnalysis        Category = "ast_analysis"
	CategoryDependencyAnalysis Category = "dependency_analysis"
	CategoryKnowledgeQuery     Category = "knowledge_query"
	CategoryDelegation         Category = "delegation"
	CategoryGitOps             Category = "git_ops"
	CategoryIssueTracking      Category = "issue_tracking"
)

// AllCategories is the fixed category enumeration, in matrix order.
var AllCategories = []Category{
	CategoryFileMutation, CategoryFileRead, CategoryShellExec, CategoryVerifier,
	CategoryAstAnalysis, CategoryDependencyAnalysis, CategoryKnowledgeQuery,
	CategoryDelegation, CategoryGitOps, CategoryIssueTracking,
}

// AccessLevel is Allowed | ReadOnly | Denied.
type AccessLevel string

const (
	AccessAllowed  AccessLevel = "allowed"
	AccessReadOnly AccessLevel = "read_only"
	AccessDenied   AccessLevel = "denied"
)

// Permitted reports whether this level grants any access at all
// (Allowed or ReadOnly).
func (a AccessLevel) Permitted() bool {
	return a == AccessAllowed || a == AccessReadOnly
}

// Matrix is the total (Role, Category) -> AccessLevel function (§3/§4.7).
type Matrix struct {
	table map[Role]map[Category]AccessLevel
}

// NewDefaultMatrix returns the coordination core's default capability
// matrix, satisfying every §3 invariant: (i) no role holds both
// FileMutation=Allowed and Verifier=Allowed; (ii) Reviewer and Reasoner
// have FileMutation=Denied; (iii) Coder has Delegation=Denied.
func NewDefaultMatrix() *Matrix {
	m := &Matrix{table: make(map[Role]map[Category]AccessLevel, len(AllRoles))}

	m.table[RoleCoder] = map[Category]AccessLevel{
		CategoryFileMutation:       AccessAllowed,
		CategoryFileRead:           AccessAllowed,
		CategoryShellExec:          AccessAllowed,
		CategoryVerifier:           AccessDenied,
		CategoryAstAnalysis:        AccessAllowed,
		CategoryDependencyAnalysis: AccessAllowed,
		CategoryKnowledgeQuery:     AccessAllowed,
		CategoryDelegation:         AccessDenied,
		CategoryGitOps:             AccessAllowed,
		CategoryIssueTracking:      AccessReadOnly,
	}
	m.table[RoleReviewer] = map[Category]AccessLevel{
		CategoryFileMutation:       AccessDenied,
		CategoryFileRead:           AccessAllowed,
		CategoryShellExec:          AccessDenied,
		CategoryVerifier:           AccessAllowed,
		CategoryAstAnalysis:        AccessAllowed,
		CategoryDependencyAnalysis: AccessAllowed,
		CategoryKnowledgeQuery:     AccessAllowed,
		CategoryDelegation:         AccessDenied,
		CategoryGitOps:             AccessReadOnly,
		CategoryIssueTracking:      AccessAllowed,
	}
	m.table[RoleManager] = map[Category]AccessLevel{
		CategoryFileMutation:       AccessDenied,
		CategoryFileRead:           AccessAllowed,
		CategoryShellExec:          AccessDenied,
		CategoryVerifier:           AccessReadOnly,
		CategoryAstAnalysis:        AccessReadOnly,
		CategoryDependencyAnalysis: AccessReadOnly,
		CategoryKnowledgeQuery:     AccessAllowed,
		CategoryDelegation:         AccessAllowed,
		CategoryGitOps:             AccessReadOnly,
		CategoryIssueTracking:      AccessAllowed,
	}
	m.table[RoleReasoner] = map[Category]AccessLevel{
		CategoryFileMutation:       AccessDenied,
		CategoryFileRead:           AccessAllowed,
		CategoryShellExec:          AccessDenied,
		CategoryVerifier:           AccessReadOnly,
		CategoryAstAnalysis:        AccessAllowed,
		CategoryDependencyAnalysis: AccessAllowed,
		CategoryKnowledgeQuery:     AccessAllowed,
		CategoryDelegation:         AccessDenied,
		CategoryGitOps:             AccessDenied,
		CategoryIssueTracking:      AccessReadOnly,
	}

	return m
}

// AccessLevel is the total lookup (Role, Category) -> AccessLevel. Unknown
// (role, category) pairs — which cannot occur for the closed sets above —
// default to Denied so the function stays total.
func (m *Matrix) AccessLevel(role Role, category Category) AccessLevel {
	byCategory, ok := m.table[role]
	if !ok {
		return AccessDenied
	}
	level, ok := byCategory[category]
	if !ok {
		return AccessDenied
	}
	return level
}

// Violation is the structured denial returned by ValidateAccess (§7
// AccessViolation).
type Violation struct {
	Role      Role
	Category  Category
	Attempted string
	Rationale string
}

// ValidateAccess returns the granted access level on success, or a
// Violation on denial.
func (m *Matrix) ValidateAccess(role Role, category Category, attempted string) (AccessLevel, *Violation) {
	level := m.AccessLevel(role, category)
	if level.Permitted() {
		return level, nil
	}
	return level, &Violation{
		Role:      role,
		Category:  category,
		Attempted: attempted,
		Rationale: "role does not hold Allowed or ReadOnly access for this category",
	}
}

// PermittedCategories returns the set of categories that are not Denied
// for a role.
func (m *Matrix) PermittedCategories(role Role) []Category {
	var out []Category
	for _, cat := range AllCategories {
		if m.AccessLevel(role, cat).Permitted() {
			out = append(out, cat)
		}
	}
	return out
}

// PromptContract pairs a role with tool mentions that must and must not
// appear in a prompt (§4.7).
type PromptContract struct {
	Role              Role
	RequiredMentions  []string
	ForbiddenMentions []string
}

// ContractViolation describes a single prompt-contract violation.
type ContractViolation struct {
	Role   Role
	Kind   string // "missing_required" or "forbidden_present"
	Phrase string
}

// ValidatePrompt scans prompt text for missing required mentions or
// present forbidden mentions, returning every violation found.
func (c PromptContract) ValidatePrompt(promptText string) []ContractViolation {
	lower := strings.ToLower(promptText)
	var violations []ContractViolation

	for _, required := range c.RequiredMentions {
		if !strings.Contains(lower, strings.ToLower(required)) {
			violations = append(violations, ContractViolation{Role: c.Role, Kind: "missing_required", Phrase: required})
		}
	}
	for _, forbidden := range c.ForbiddenMentions {
		if strings.Contains(lower, strings.ToLower(forbidden)) {
			violations = append(violations, ContractViolation{Role: c.Role, Kind: "forbidden_present", Phrase: forbidden})
		}
	}
	return violations
}
