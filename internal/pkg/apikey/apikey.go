package apikey

import "golang.org/x/crypto/bcrypt"

// Hash produces the bcrypt digest stored in the config file; the plain key is
// only ever presented to the token command.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
