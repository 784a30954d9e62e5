package teams

var nba = []Team{
	{Code: "ATL", Name: "Atlanta Hawks", Nickname: "Hawks"},
	{Code: "BOS", Name: "Boston Celtics", Nickname: "Celtics"},
	{Code: "BKN", Name: "Brooklyn Nets", Nickname: "Nets", Aliases: []string{"BRK", "BKLYN"}},
	{Code: "CHA", Name: "Charlotte Hornets", Nickname: "Hornets", Aliases: []string{"CHO"}},
	{Code: "CHI", Name: "Chicago Bulls", Nickname: "Bulls"},
	{Code: "CLE", Name: "Cleveland Cavaliers", Nickname: "Cavaliers", Aliases: []string{"Cavs"}},
	{Code: "DAL", Name: "Dallas Mavericks", Nickname: "Mavericks", Aliases: []string{"Mavs"}},
	{Code: "DEN", Name: "Denver Nuggets", Nickname: "Nuggets"},
	{Code: "DET", Name: "Detroit Pistons", Nickname: "Pistons"},
	{Code: "GSW", Name: "Golden State Warriors", Nickname: "Warriors", Aliases: []string{"GS", "Golden St."}},
	{Code: "HOU", Name: "Houston Rockets", Nickname: "Rockets"},
	{Code: "IND", Name: "Indiana Pacers", Nickname: "Pacers"},
	{Code: "LAC", Name: "LA Clippers", Nickname: "Clippers", Aliases: []string{"Los Angeles Clippers", "L.A. Clippers"}},
	{Code: "LAL", Name: "Los Angeles Lakers", Nickname: "Lakers", Aliases: []string{"L.A. Lakers", "LA Lakers"}},
	{Code: "MEM", Name: "Memphis Grizzlies", Nickname: "Grizzlies"},
	{Code: "MIA", Name: "Miami Heat", Nickname: "Heat"},
	{Code: "MIL", Name: "Milwaukee Bucks", Nickname: "Bucks"},
	{Code: "MIN", Name: "Minnesota Timberwolves", Nickname: "Timberwolves", Aliases: []string{"Wolves"}},
	{Code: "NOP", Name: "New Orleans Pelicans", Nickname: "Pelicans", Aliases: []string{"NO", "NOR"}},
	{Code: "NYK", Name: "New York Knicks", Nickname: "Knicks", Aliases: []string{"NY"}},
	{Code: "OKC", Name: "Oklahoma City Thunder", Nickname: "Thunder"},
	{Code: "ORL", Name: "Orlando Magic", Nickname: "Magic"},
	{Code: "PHI", Name: "Philadelphia 76ers", Nickname: "76ers", Aliases: []string{"Sixers"}},
	{Code: "PHX", Name: "Phoenix Suns", Nickname: "Suns", Aliases: []string{"PHO"}},
	{Code: "POR", Name: "Portland Trail Blazers", Nickname: "Trail Blazers", Aliases: []string{"Blazers"}},
	{Code: "SAC", Name: "Sacramento Kings", Nickname: "Kings"},
	{Code: "SAS", Name: "San Antonio Spurs", Nickname: "Spurs", Aliases: []string{"SA"}},
	{Code: "TOR", Name: "Toronto Raptors", Nickname: "Raptors"},
	{Code: "UTA", Name: "Utah Jazz", Nickname: "Jazz", Aliases: []string{"UTAH"}},
	{Code: "WAS", Name: "Washington Wizards", Nickname: "Wizards", Aliases: []string{"WSH"}},
}

var wnba = []Team{
	{Code: "ATL", Name: "Atlanta Dream", Nickname: "Dream"},
	{Code: "CHI", Name: "Chicago Sky", Nickname: "Sky"},
	{Code: "CON", Name: "Connecticut Sun", Nickname: "Sun", Aliases: []string{"CONN"}},
	{Code: "DAL", Name: "Dallas Wings", Nickname: "Wings"},
	{Code: "GSV", Name: "Golden State Valkyries", Nickname: "Valkyries", Aliases: []string{"GS"}},
	{Code: "IND", Name: "Indiana Fever", Nickname: "Fever"},
	{Code: "LV", Name: "Las Vegas Aces", Nickname: "Aces", Aliases: []string{"LVA"}},
	{Code: "LA", Name: "Los Angeles Sparks", Nickname: "Sparks", Aliases: []string{"LAS"}},
	{Code: "MIN", Name: "Minnesota Lynx", Nickname: "Lynx"},
	{Code: "NY", Name: "New York Liberty", Nickname: "Liberty", Aliases: []string{"NYL"}},
	{Code: "PHX", Name: "Phoenix Mercury", Nickname: "Mercury", Aliases: []string{"PHO"}},
	{Code: "SEA", Name: "Seattle Storm", Nickname: "Storm"},
	{Code: "WAS", Name: "Washington Mystics", Nickname: "Mystics", Aliases: []string{"WSH"}},
}

var nfl = []Team{
	{Code: "ARI", Name: "Arizona Cardinals", Nickname: "Cardinals"},
	{Code: "ATL", Name: "Atlanta Falcons", Nickname: "Falcons"},
	{Code: "BAL", Name: "Baltimore Ravens", Nickname: "Ravens"},
	{Code: "BUF", Name: "Buffalo Bills", Nickname: "Bills"},
	{Code: "CAR", Name: "Carolina Panthers", Nickname: "Panthers"},
	{Code: "CHI", Name: "Chicago Bears", Nickname: "Bears"},
	{Code: "CIN", Name: "Cincinnati Bengals", Nickname: "Bengals"},
	{Code: "CLE", Name: "Cleveland Browns", Nickname: "Browns"},
	{Code: "DAL", Name: "Dallas Cowboys", Nickname: "Cowboys"},
	{Code: "DEN", Name: "Denver Broncos", Nickname: "Broncos"},
	{Code: "DET", Name: "Detroit Lions", Nickname: "Lions"},
	{Code: "GB", Name: "Green Bay Packers", Nickname: "Packers", Aliases: []string{"GNB"}},
	{Code: "HOU", Name: "Houston Texans", Nickname: "Texans"},
	{Code: "IND", Name: "Indianapolis Colts", Nickname: "Colts"},
	{Code: "JAX", Name: "Jacksonville Jaguars", Nickname: "Jaguars", Aliases: []string{"JAC"}},
	{Code: "KC", Name: "Kansas City Chiefs", Nickname: "Chiefs", Aliases: []string{"KAN"}},
	{Code: "LV", Name: "Las Vegas Raiders", Nickname: "Raiders", Aliases: []string{"LVR"}},
	{Code: "LAC", Name: "Los Angeles Chargers", Nickname: "Chargers", Aliases: []string{"L.A. Chargers"}},
	{Code: "LAR", Name: "Los Angeles Rams", Nickname: "Rams", Aliases: []string{"LA", "L.A. Rams"}},
	{Code: "MIA", Name: "Miami Dolphins", Nickname: "Dolphins"},
	{Code: "MIN", Name: "Minnesota Vikings", Nickname: "Vikings"},
	{Code: "NE", Name: "New England Patriots", Nickname: "Patriots", Aliases: []string{"NWE"}},
	{Code: "NO", Name: "New Orleans Saints", Nickname: "Saints", Aliases: []string{"NOR"}},
	{Code: "NYG", Name: "New York Giants", Nickname: "Giants"},
	{Code: "NYJ", Name: "New York Jets", Nickname: "Jets"},
	{Code: "PHI", Name: "Philadelphia Eagles", Nickname: "Eagles"},
	{Code: "PIT", Name: "Pittsburgh Steelers", Nickname: "Steelers"},
	{Code: "SF", Name: "San Francisco 49ers", Nickname: "49ers", Aliases: []string{"SFO", "Niners"}},
	{Code: "SEA", Name: "Seattle Seahawks", Nickname: "Seahawks"},
	{Code: "TB", Name: "Tampa Bay Buccaneers", Nickname: "Buccaneers", Aliases: []string{"TAM", "Bucs"}},
	{Code: "TEN", Name: "Tennessee Titans", Nickname: "Titans"},
	{Code: "WSH", Name: "Washington Commanders", Nickname: "Commanders", Aliases: []string{"WAS"}},
}

var mlb = []Team{
	{Code: "ARI", Name: "Arizona Diamondbacks", Nickname: "Diamondbacks", Aliases: []string{"AZ", "D-backs"}},
	{Code: "ATH", Name: "Athletics", Nickname: "A's", Aliases: []string{"OAK", "Oakland Athletics"}},
	{Code: "ATL", Name: "Atlanta Braves", Nickname: "Braves"},
	{Code: "BAL", Name: "Baltimore Orioles", Nickname: "Orioles"},
	{Code: "BOS", Name: "Boston Red Sox", Nickname: "Red Sox"},
	{Code: "CHC", Name: "Chicago Cubs", Nickname: "Cubs"},
	{Code: "CHW", Name: "Chicago White Sox", Nickname: "White Sox", Aliases: []string{"CWS"}},
	{Code: "CIN", Name: "Cincinnati Reds", Nickname: "Reds"},
	{Code: "CLE", Name: "Cleveland Guardians", Nickname: "Guardians"},
	{Code: "COL", Name: "Colorado Rockies", Nickname: "Rockies"},
	{Code: "DET", Name: "Detroit Tigers", Nickname: "Tigers"},
	{Code: "HOU", Name: "Houston Astros", Nickname: "Astros"},
	{Code: "KC", Name: "Kansas City Royals", Nickname: "Royals", Aliases: []string{"KCR"}},
	{Code: "LAA", Name: "Los Angeles Angels", Nickname: "Angels", Aliases: []string{"L.A. Angels"}},
	{Code: "LAD", Name: "Los Angeles Dodgers", Nickname: "Dodgers", Aliases: []string{"L.A. Dodgers"}},
	{Code: "MIA", Name: "Miami Marlins", Nickname: "Marlins"},
	{Code: "MIL", Name: "Milwaukee Brewers", Nickname: "Brewers"},
	{Code: "MIN", Name: "Minnesota Twins", Nickname: "Twins"},
	{Code: "NYM", Name: "New York Mets", Nickname: "Mets"},
	{Code: "NYY", Name: "New York Yankees", Nickname: "Yankees"},
	{Code: "PHI", Name: "Philadelphia Phillies", Nickname: "Phillies"},
	{Code: "PIT", Name: "Pittsburgh Pirates", Nickname: "Pirates"},
	{Code: "SD", Name: "San Diego Padres", Nickname: "Padres", Aliases: []string{"SDP"}},
	{Code: "SF", Name: "San Francisco Giants", Nickname: "Giants", Aliases: []string{"SFG"}},
	{Code: "SEA", Name: "Seattle Mariners", Nickname: "Mariners"},
	{Code: "STL", Name: "St. Louis Cardinals", Nickname: "Cardinals"},
	{Code: "TB", Name: "Tampa Bay Rays", Nickname: "Rays", Aliases: []string{"TBR"}},
	{Code: "TEX", Name: "Texas Rangers", Nickname: "Rangers"},
	{Code: "TOR", Name: "Toronto Blue Jays", Nickname: "Blue Jays"},
	{Code: "WSH", Name: "Washington Nationals", Nickname: "Nationals", Aliases: []string{"WAS", "WSN", "Nats"}},
}

var nhl = []Team{
	{Code: "ANA", Name: "Anaheim Ducks", Nickname: "Ducks"},
	{Code: "BOS", Name: "Boston Bruins", Nickname: "Bruins"},
	{Code: "BUF", Name: "Buffalo Sabres", Nickname: "Sabres"},
	{Code: "CGY", Name: "Calgary Flames", Nickname: "Flames"},
	{Code: "CAR", Name: "Carolina Hurricanes", Nickname: "Hurricanes", Aliases: []string{"Canes"}},
	{Code: "CHI", Name: "Chicago Blackhawks", Nickname: "Blackhawks"},
	{Code: "COL", Name: "Colorado Avalanche", Nickname: "Avalanche"},
	{Code: "CBJ", Name: "Columbus Blue Jackets", Nickname: "Blue Jackets", Aliases: []string{"CLB"}},
	{Code: "DAL", Name: "Dallas Stars", Nickname: "Stars"},
	{Code: "DET", Name: "Detroit Red Wings", Nickname: "Red Wings"},
	{Code: "EDM", Name: "Edmonton Oilers", Nickname: "Oilers"},
	{Code: "FLA", Name: "Florida Panthers", Nickname: "Panthers"},
	{Code: "LAK", Name: "Los Angeles Kings", Nickname: "Kings", Aliases: []string{"LA", "L.A. Kings"}},
	{Code: "MIN", Name: "Minnesota Wild", Nickname: "Wild"},
	{Code: "MTL", Name: "Montreal Canadiens", Nickname: "Canadiens", Aliases: []string{"MON", "Montréal Canadiens"}},
	{Code: "NSH", Name: "Nashville Predators", Nickname: "Predators", Aliases: []string{"NAS"}},
	{Code: "NJD", Name: "New Jersey Devils", Nickname: "Devils", Aliases: []string{"NJ"}},
	{Code: "NYI", Name: "New York Islanders", Nickname: "Islanders"},
	{Code: "NYR", Name: "New York Rangers", Nickname: "Rangers"},
	{Code: "OTT", Name: "Ottawa Senators", Nickname: "Senators"},
	{Code: "PHI", Name: "Philadelphia Flyers", Nickname: "Flyers"},
	{Code: "PIT", Name: "Pittsburgh Penguins", Nickname: "Penguins"},
	{Code: "SJS", Name: "San Jose Sharks", Nickname: "Sharks", Aliases: []string{"SJ"}},
	{Code: "SEA", Name: "Seattle Kraken", Nickname: "Kraken"},
	{Code: "STL", Name: "St. Louis Blues", Nickname: "Blues"},
	{Code: "TBL", Name: "Tampa Bay Lightning", Nickname: "Lightning", Aliases: []string{"TB"}},
	{Code: "TOR", Name: "Toronto Maple Leafs", Nickname: "Maple Leafs"},
	{Code: "UTA", Name: "Utah Mammoth", Nickname: "Mammoth", Aliases: []string{"UTAH", "Utah Hockey Club"}},
	{Code: "VAN", Name: "Vancouver Canucks", Nickname: "Canucks"},
	{Code: "VGK", Name: "Vegas Golden Knights", Nickname: "Golden Knights", Aliases: []string{"VEG"}},
	{Code: "WSH", Name: "Washington Capitals", Nickname: "Capitals", Aliases: []string{"WAS", "Caps"}},
	{Code: "WPG", Name: "Winnipeg Jets", Nickname: "Jets"},
}
