package api

import "net/http"

type datasetView struct {
	Name           string   `json:"name"`
	Topic          string   `json:"topic"`
	Description    string   `json:"description,omitempty"`
	ExamplePrompts []string `json:"example_prompts,omitempty"`
}

func handleListDatasets(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Registry == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "DATASETS_NOT_CONFIGURED", "dataset registry is not configured", false, nil)
		return
	}
	if err := requireRole(r, "asker"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	descriptors := deps.Registry.List()
	views := make([]datasetView, 0, len(descriptors))
	for _, descriptor := range descriptors {
		views = append(views, datasetView{
			Name:           descriptor.Name,
			Topic:          descriptor.Topic,
			Description:    descriptor.Description,
			ExamplePrompts: descriptor.ExamplePrompts,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"datasets": views,
		"default":  deps.Registry.Default().Name,
	})
}
