package domain

type User struct {
	Id          string
	Username    string
	DisplayName string
}
