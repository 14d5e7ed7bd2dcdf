package report

import "encoding/json"

// JSONRenderer renders views as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(v *View) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (r *JSONRenderer) RenderList(rows []Row) ([]byte, error) {
	if rows == nil {
		rows = []Row{}
	}
	return json.MarshalIndent(rows, "", "  ")
}
