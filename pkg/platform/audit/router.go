package audit

import "context"

// Router sends each event to the publisher for its category. A nil route
// discards events of that category.
type Router struct {
	Compliance Publisher
	Security   Publisher
	Operations Publisher
}

func (r Router) Emit(ctx context.Context, event Event) error {
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	var p Publisher
	switch event.Category {
	case CategoryCompliance:
		p = r.Compliance
	case CategorySecurity:
		p = r.Security
	default:
		p = r.Operations
	}
	if p == nil {
		return nil
	}
	return p.Emit(ctx, event)
}
