package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kpelto/benchline/internal/model"
)

func read(fn string) []*model.User {
	dat, err := os.ReadFile(fn)
	if err != nil {
		return nil
	}

	users := make([]*model.User, 0)
	if err := yaml.Unmarshal(dat, &users); err != nil {
		panic(err.Error())
	}

	return users
}

func write(fn string, users []*model.User) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}

	defer f.Close()

	enc := yaml.NewEncoder(f)

	return enc.Encode(users)
}

func main() {
	file := flag.String("file", "users.yml", "users file")
	login := flag.String("user", "", "login")
	passwd := flag.String("password", "", "password")
	tenant := flag.Uint("tenant", 0, "tenant id, 0 for all tenants")
	admin := flag.Bool("admin", false, "platform admin")

	flag.Parse()

	users := read(*file)

	if *login == "" {
		for _, u := range users {
			fmt.Printf("%s\ttenant=%d\tadmin=%v\n", u.Login, u.TenantID, u.Admin)
		}

		return
	}

	pass := *passwd
	if pass == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("password: ")
		p1, _ := reader.ReadString('\n')
		fmt.Print("repeat password: ")
		p2, _ := reader.ReadString('\n')

		if p1 != p2 {
			fmt.Println("\npassword mismatch")

			return
		}

		pass = strings.TrimRight(p1, "\r\n")
	}

	var found bool

	for _, u := range users {
		if u.Login == *login {
			found = true

			if err := u.SetPassword(pass); err != nil {
				fmt.Println(err.Error())

				return
			}

			u.TenantID = *tenant
			u.Admin = *admin

			break
		}
	}

	if !found {
		u := &model.User{Login: *login, TenantID: *tenant, Admin: *admin}

		if err := u.SetPassword(pass); err != nil {
			fmt.Println(err.Error())

			return
		}

		users = append(users, u)
	}

	if err := write(*file, users); err != nil {
		fmt.Println(err.Error())
	}
}
