package password

// commonPasswords is a static set of frequently breached passwords.
// Lookups are done against the lowercased candidate.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range commonPasswordList {
		commonPasswords[p] = struct{}{}
	}
}

func isCommonPassword(lower string) bool {
	_, ok := commonPasswords[lower]
	return ok
}

var commonPasswordList = []string{
	"password", "password1", "password123", "passw0rd", "p@ssw0rd",
	"p@ssword1", "password!", "password1!", "letmein", "letmein123",
	"welcome", "welcome1", "welcome123", "admin", "admin123",
	"administrator", "root", "toor", "qwerty", "qwerty123",
	"qwertyuiop", "123456", "1234567", "12345678", "123456789",
	"1234567890", "111111", "000000", "abc123", "abcd1234",
	"iloveyou", "monkey", "dragon", "sunshine", "princess",
	"football", "baseball", "superman", "batman", "trustno1",
	"master", "shadow", "michael", "jennifer", "jordan",
	"hunter2", "freedom", "whatever", "secret", "secret123",
	"login", "starwars", "pokemon", "computer", "internet",
	"changeme", "changeme123", "default", "guest", "test1234",
	"summer2024", "winter2024", "spring2024", "autumn2024", "hello123",
}
