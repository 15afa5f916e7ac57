package ledger

type PostRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	LeaveType   string `json:"leave_type" binding:"required,max=30"`
	Year        int    `json:"year" binding:"required"`
	Days        string `json:"days" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

type AdjustRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	LeaveType   string `json:"leave_type" binding:"required,max=30"`
	Year        int    `json:"year" binding:"required"`
	Delta       string `json:"delta" binding:"required"`
	Override    bool   `json:"override"`
	Description string `json:"description" binding:"required,max=500"`
}

type TransactionResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Amount         string  `json:"amount"`
	Date           string  `json:"date"`
	Description    string  `json:"description,omitempty"`
	LeaveRequestID *string `json:"leave_request_id,omitempty"`
	Override       bool    `json:"override,omitempty"`
}

type BalanceResponse struct {
	ID             string                `json:"id"`
	EmployeeID     string                `json:"employee_id"`
	LeaveType      string                `json:"leave_type"`
	Year           int                   `json:"year"`
	TotalAllocated string                `json:"total_allocated"`
	Used           string                `json:"used"`
	Pending        string                `json:"pending"`
	CarriedForward string                `json:"carried_forward"`
	Remaining      string                `json:"remaining"`
	Version        int64                 `json:"version"`
	Transactions   []TransactionResponse `json:"transactions,omitempty"`
}

func MapToResponse(b Balance) BalanceResponse {
	resp := BalanceResponse{
		ID:             b.ID.String(),
		EmployeeID:     b.EmployeeID.String(),
		LeaveType:      b.LeaveType,
		Year:           b.Year,
		TotalAllocated: b.TotalAllocated.StringFixed(2),
		Used:           b.Used.StringFixed(2),
		Pending:        b.Pending.StringFixed(2),
		CarriedForward: b.CarriedForward.StringFixed(2),
		Remaining:      b.Remaining.StringFixed(2),
		Version:        b.Version,
	}
	for _, tx := range b.Transactions {
		tr := TransactionResponse{
			ID:          tx.ID.String(),
			Type:        string(tx.Type),
			Amount:      tx.Amount.StringFixed(2),
			Date:        tx.Date.Format("2006-01-02T15:04:05Z07:00"),
			Description: tx.Description,
			Override:    tx.Override,
		}
		if tx.LeaveRequestID != nil {
			id := tx.LeaveRequestID.String()
			tr.LeaveRequestID = &id
		}
		resp.Transactions = append(resp.Transactions, tr)
	}
	return resp
}
