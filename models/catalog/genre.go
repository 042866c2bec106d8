package catalog

import "encoding/json"

type Genre struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

func GenreFromJSON(jsonData []byte) (*Genre, error) {
	g := &Genre{}
	err := json.Unmarshal(jsonData, g)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Genre) ToJSON() ([]byte, error) {
	return json.Marshal(g)
}
