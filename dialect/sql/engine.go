package sql

// DriverName returns the database/sql driver name of the compiled-in SQLite
// engine: "sqlite" for modernc.org/sqlite, "sqlite3" for mattn/go-sqlite3.
func DriverName() string {
	return driverName
}

// DriverType returns "purego" or "cgo" depending on the compiled-in engine.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO engine is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Info describes the compiled-in SQLite engine.
type Info struct {
	DriverName string `json:"driver_name" yaml:"driver_name"`
	DriverType string `json:"driver_type" yaml:"driver_type"`
	Package    string `json:"package" yaml:"package"`
}

// EngineInfo returns information about the compiled-in SQLite engine.
func EngineInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}

// OpenEngine opens source with the compiled-in SQLite engine.
func OpenEngine(source string) (*Driver, error) {
	return Open(driverName, source)
}
