package config

// Layout constants
const (
	// File picker
	PickerMinWidth     = 40
	PickerDefaultWidth = 80

	// Selected file list
	SelectedListMax        = 5
	FileNameTruncateLength = 48
)
