package models

import "time"

// Company is a directory listing as stored by the directory service.
type Company struct {
	ID               string             `bson:"id" json:"id"`
	Slug             string             `bson:"slug" json:"slug"`
	Name             string             `bson:"name" json:"name"`
	Category         string             `bson:"category,omitempty" json:"category,omitempty"`
	Specialty        string             `bson:"specialty,omitempty" json:"specialty,omitempty"`
	City             string             `bson:"city,omitempty" json:"city,omitempty"`
	ShortDescription string             `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Popularity       int64              `bson:"popularity" json:"popularity"`
	TemplateID       string             `bson:"templateId,omitempty" json:"templateId,omitempty"`
	SocialLinks      SocialMediaProfile `bson:"socialLinks,omitempty" json:"socialLinks,omitempty"`
	AdditionalLinks  []AdditionalLink   `bson:"additionalLinks,omitempty" json:"additionalLinks,omitempty"`
	OwnerID          string             `bson:"ownerId,omitempty" json:"ownerId,omitempty"`
	Email            string             `bson:"email,omitempty" json:"email,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SearchFilters are the optional AND-combined directory filters.
type SearchFilters struct {
	Category  string `json:"category,omitempty" form:"category"`
	Specialty string `json:"specialty,omitempty" form:"specialty"`
	City      string `json:"city,omitempty" form:"city"`
}

// Empty reports whether no filter is active.
func (f SearchFilters) Empty() bool {
	return f.Category == "" && f.Specialty == "" && f.City == ""
}

// SearchCriteria is one directory query.
type SearchCriteria struct {
	Query string
	SearchFilters
	Limit int64
}
