package model

// Resource is equipment that can be attached to spaces (projector,
// whiteboard, video conference kit).
type Resource struct {
    ID          uint64 `json:"id"`          // resources.id
    Name        string `json:"name"`        // resources.name
    Description string `json:"description"` // resources.description
}
