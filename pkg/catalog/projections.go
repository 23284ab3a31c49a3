package catalog

// Form is the externally-supplied description of a collectable form. The
// catalog does not own forms; callers pass the current collection in.
type Form struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ContractTemplate is the externally-supplied description of a contract
// template usable by signature actions.
type ContractTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	ProjectType string `json:"projectType,omitempty"`
}

// FormEntry is the minimal display shape projected out of a form collection.
type FormEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TemplateEntry is the minimal display shape projected out of a template list.
type TemplateEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AvailableForms projects a form collection keyed by id into a flat list.
func AvailableForms(forms map[string]Form) []FormEntry {
	entries := make([]FormEntry, 0, len(forms))
	for id, f := range forms {
		name := f.Name
		if name == "" {
			name = id
		}
		entries = append(entries, FormEntry{ID: id, Name: name})
	}
	return entries
}

// AvailableTemplates projects templates into a flat list. Inactive templates
// are filtered when activeOnly is set; when projectType is non-empty, only
// templates whose own project type is absent or equal are kept.
func AvailableTemplates(templates []ContractTemplate, activeOnly bool, projectType string) []TemplateEntry {
	var entries []TemplateEntry
	for _, t := range templates {
		if activeOnly && !t.Active {
			continue
		}
		if projectType != "" && t.ProjectType != "" && t.ProjectType != projectType {
			continue
		}
		entries = append(entries, TemplateEntry{ID: t.ID, Name: t.Name})
	}
	return entries
}

// IsValidFormID reports whether id exists in the supplied form collection.
func IsValidFormID(id string, forms map[string]Form) bool {
	_, ok := forms[id]
	return ok
}

// IsValidTemplateID reports whether id exists in the supplied template list.
func IsValidTemplateID(id string, templates []ContractTemplate) bool {
	for _, t := range templates {
		if t.ID == id {
			return true
		}
	}
	return false
}
