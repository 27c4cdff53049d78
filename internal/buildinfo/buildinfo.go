package buildinfo

const (
	ProjectName = "biasbingo"
	GithubURL   = "https://github.com/bloops-games/biasbingo"
)

const Graffiti = `
 ___ _           ___ _                 
| _ |_)__ _ ___ | _ |_)_ _  __ _ ___   
| _ \ / _' (_-< | _ \ | ' \/ _' / _ \  
|___/_\__,_/__/ |___/_|_||_\__, \___/  
                           |___/       
`

const GreetingCLI = "%s %s\nsource: %s\n\n"
