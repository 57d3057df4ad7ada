package plan

// Equal reports whether two configurations hold the same values. Dates are
// compared as instants, so the same moment in different locations is equal.
func Equal(a, b Configuration) bool {
	return a.Client == b.Client &&
		a.Project == b.Project &&
		a.Unit == b.Unit &&
		a.Currency == b.Currency &&
		a.Price == b.Price &&
		a.Reservation == b.Reservation &&
		a.Signature == b.Signature &&
		a.DuringConstruction == b.DuringConstruction &&
		a.AtDelivery == b.AtDelivery &&
		a.ReservationPercent == b.ReservationPercent &&
		a.SignaturePercent == b.SignaturePercent &&
		a.ReservationSignaturePercent == b.ReservationSignaturePercent &&
		a.DuringConstructionPercent == b.DuringConstructionPercent &&
		a.AtDeliveryPercent == b.AtDeliveryPercent &&
		a.DeliveryDate.Equal(b.DeliveryDate) &&
		a.ReservationDate.Equal(b.ReservationDate) &&
		a.SignatureDate.Equal(b.SignatureDate) &&
		a.FirstPaymentDate.Equal(b.FirstPaymentDate) &&
		a.LastPaymentDate.Equal(b.LastPaymentDate) &&
		a.Frequency == b.Frequency &&
		EqualInstallments(a.Payments, b.Payments)
}

// EqualInstallments reports whether two installment lists hold the same
// values in the same order. A nil list equals an empty one.
func EqualInstallments(a, b []Installment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID ||
			!a[i].Date.Equal(b[i].Date) ||
			a[i].Ordinary != b[i].Ordinary ||
			a[i].Extra != b[i].Extra {
			return false
		}
	}
	return true
}
