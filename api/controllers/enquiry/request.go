package enquiry

import (
	enquirysvc "github.com/ilift/ilift-backend/internal/enquiry"
)

// contactRequest carries no validate tags: drafts may be partial and the
// submission flow owns the required-field rules.
type contactRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type submitRequest struct {
	Contact contactRequest `json:"contact"`
}

func (c contactRequest) toContact() enquirysvc.Contact {
	return enquirysvc.Contact{
		Name:    c.Name,
		Company: c.Company,
		Email:   c.Email,
		Phone:   c.Phone,
		Message: c.Message,
	}
}
