package domain

// Validate checks that the coordinate is a WGS 84 point.
func (l Location) Validate() error {
	var errs ValidationErrors
	if l.Lat < -90 || l.Lat > 90 {
		errs = append(errs, ValidationError{Field: "lat", Msg: "must be between -90 and 90"})
	}
	if l.Lng < -180 || l.Lng > 180 {
		errs = append(errs, ValidationError{Field: "lng", Msg: "must be between -180 and 180"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
