package domain

import "strings"

// ContentState represents lifecycle states for editorial content items.
type ContentState string

const (
	// StateDraft indicates content still under preparation by its editor
	StateDraft ContentState = "draft"
	// StateInReview marks content waiting on a chief editor decision
	StateInReview ContentState = "in_review"
	// StateNeedsRevision marks content returned to the editor with notes
	StateNeedsRevision ContentState = "needs_revision"
	// StateApproved marks content cleared for publication
	StateApproved ContentState = "approved"
	// StatePublished identifies content available to readers
	StatePublished ContentState = "published"
	// StateArchived marks content retained for history but not publicly visible
	StateArchived ContentState = "archived"
)

// InitialState is the only state new items may start in.
const InitialState = StateDraft

var allStates = []ContentState{
	StateDraft,
	StateInReview,
	StateNeedsRevision,
	StateApproved,
	StatePublished,
	StateArchived,
}

// States returns every known content state in lifecycle order.
func States() []ContentState {
	out := make([]ContentState, len(allStates))
	copy(out, allStates)
	return out
}

// ParseState coerces the input into a known state. Matching ignores case,
// surrounding whitespace, and accepts hyphen or camel spellings.
func ParseState(input string) (ContentState, bool) {
	key := normalizeKey(input)
	for _, state := range allStates {
		if string(state) == key {
			return state, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known states.
func (s ContentState) Valid() bool {
	_, ok := ParseState(string(s))
	return ok && normalizeKey(string(s)) == string(s)
}

func (s ContentState) String() string { return string(s) }

// Action names a workflow transition requested by a caller.
type Action string

const (
	ActionSubmit          Action = "submit"
	ActionRequestRevision Action = "request_revision"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionPublish         Action = "publish"
	ActionUnpublish       Action = "unpublish"
	ActionArchive         Action = "archive"
	ActionRestore         Action = "restore"
)

var allActions = []Action{
	ActionSubmit,
	ActionRequestRevision,
	ActionApprove,
	ActionReject,
	ActionPublish,
	ActionUnpublish,
	ActionArchive,
	ActionRestore,
}

// Actions returns every known action.
func Actions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

// ParseAction coerces the input into a known action.
func ParseAction(input string) (Action, bool) {
	key := normalizeKey(input)
	for _, action := range allActions {
		if string(action) == key {
			return action, true
		}
	}
	return "", false
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	_, ok := ParseAction(string(a))
	return ok && normalizeKey(string(a)) == string(a)
}

func (a Action) String() string { return string(a) }

// ContentKind distinguishes the editorial formats carried by an item.
type ContentKind string

const (
	KindArticle ContentKind = "article"
	KindNews    ContentKind = "news"
)

// ParseKind coerces the input into a known kind, defaulting to article when empty.
func ParseKind(input string) (ContentKind, bool) {
	switch normalizeKey(input) {
	case "", string(KindArticle):
		return KindArticle, true
	case string(KindNews):
		return KindNews, true
	default:
		return "", false
	}
}

// normalizeKey lower-cases the input and folds camelCase and hyphens into snake_case.
func normalizeKey(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(trimmed) + 4)
	for i, r := range trimmed {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				prev := trimmed[i-1]
				if prev >= 'a' && prev <= 'z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
