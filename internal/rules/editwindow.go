package rules

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleInspection Role = "inspection"
)

const (
	ReasonOutsideEditWindow    = "outside edit window"
	ReasonFutureDateNotAllowed = "future date not permitted"
	ReasonPastDateNotAllowed   = "past date entry not permitted"
	ReasonLeaveDayRestricted   = "cannot log work on a company leave day"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanWrite decides whether a record dated recordDate may be created, edited
// or deleted on the given day. Admins bypass the window entirely; everyone
// else may only touch dates within windowDays of today, and future dates
// only when allowFuture is set.
func CanWrite(recordDate, today Date, role Role, windowDays int, allowFuture bool) Decision {
	if role == RoleAdmin {
		return allow()
	}
	if recordDate.Before(today.AddDays(-windowDays)) {
		return deny(ReasonOutsideEditWindow)
	}
	if recordDate.After(today) && !allowFuture {
		return deny(ReasonFutureDateNotAllowed)
	}
	return allow()
}
