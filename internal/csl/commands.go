package csl

import "errors"

// Command is a declaration-file command keyword.
type Command int

const (
	CmdExportName Command = iota
	CmdDependency
	CmdObject
	CmdTexture
	CmdAircraft
	CmdObj8Aircraft
	CmdObj8
	CmdVertOffset
	CmdHasGear
	CmdICAO
	CmdAirline
	CmdLivery
	commandCount
)

var commandKeywords = [commandCount]string{
	CmdExportName:   "EXPORT_NAME",
	CmdDependency:   "DEPENDENCY",
	CmdObject:       "OBJECT",
	CmdTexture:      "TEXTURE",
	CmdAircraft:     "AIRCRAFT",
	CmdObj8Aircraft: "OBJ8_AIRCRAFT",
	CmdObj8:         "OBJ8",
	CmdVertOffset:   "VERT_OFFSET",
	CmdHasGear:      "HASGEAR",
	CmdICAO:         "ICAO",
	CmdAirline:      "AIRLINE",
	CmdLivery:       "LIVERY",
}

func (c Command) String() string {
	if c < 0 || c >= commandCount {
		return "UNKNOWN"
	}
	return commandKeywords[c]
}

// LookupCommand maps a case-sensitive keyword to its Command.
func LookupCommand(keyword string) (Command, bool) {
	for c, kw := range commandKeywords {
		if kw == keyword {
			return Command(c), true
		}
	}
	return 0, false
}

// Errors returned by command handlers. They are reported as diagnostics
// and never stop the parse of a package.
var (
	ErrArgCount          = errors.New("wrong number of arguments")
	ErrBadArgument       = errors.New("invalid argument")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrNoCurrentPlane    = errors.New("no plane declared before this command")
	ErrWrongPlaneKind    = errors.New("command does not apply to the current plane")
	ErrPackageNotFound   = errors.New("package not found")
	ErrMissingDependency = errors.New("required package not found")
	ErrDuplicateName     = errors.New("package name already in use")
)
