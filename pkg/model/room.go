package model

type Room struct {
	ID       string `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location,omitempty" bson:"location,omitempty"`
	Capacity int    `json:"capacity" bson:"capacity"`
	IsActive bool   `json:"is_active" bson:"is_active"`
}
