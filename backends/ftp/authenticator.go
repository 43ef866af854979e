package backend_ftp

func (b *FTPBackend) Login(username, password string) (err error) {
	err = b.conn.Login(username, password)
	return
}
