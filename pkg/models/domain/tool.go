package domain

// ToolStatus is the status row of a single catalog entity.
type ToolStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Cu    bool   `json:"cu"`
	Pb    bool   `json:"pb"`
	Au    bool   `json:"au"`
}
