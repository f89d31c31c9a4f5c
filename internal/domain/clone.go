package domain

// Clone returns a deep copy so stored records never alias caller state.
func (u *User) Clone() *User {
	c := *u
	c.Skills = append([]string(nil), u.Skills...)
	return &c
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	c.RejectedBy = append([]string(nil), j.RejectedBy...)
	if j.Cancellation != nil {
		cc := *j.Cancellation
		c.Cancellation = &cc
	}
	if j.ClientRating != nil {
		r := *j.ClientRating
		c.ClientRating = &r
	}
	if j.WorkerRating != nil {
		r := *j.WorkerRating
		c.WorkerRating = &r
	}
	return &c
}

// Clone returns a deep copy of the payment.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}

// Clone returns a deep copy of the dispute.
func (d *Dispute) Clone() *Dispute {
	c := *d
	return &c
}
