package imagecrop

import "strings"

// Selection actions available once a region exists. Mutually exclusive.
const (
	ActionAddText       = "add_text"
	ActionRemoveText    = "remove_text"
	ActionRemoveContent = "remove_content"
	ActionReplace       = "replace"
	ActionFree          = "free"
)

type SelectionInput struct {
	Action              string
	Text                string
	Instruction         string
	ReplacementImageURL string
	AddImageURL         string
}

// ValidateSelectionAction reports whether the active action's required input is
// present. Submission stays blocked until it is.
func ValidateSelectionAction(in SelectionInput) bool {
	switch in.Action {
	case ActionAddText:
		return strings.TrimSpace(in.Text) != ""
	case ActionRemoveText, ActionRemoveContent:
		return true
	case ActionReplace:
		return in.ReplacementImageURL != ""
	case ActionFree:
		return strings.TrimSpace(in.Instruction) != "" ||
			in.ReplacementImageURL != "" || in.AddImageURL != ""
	default:
		return false
	}
}
