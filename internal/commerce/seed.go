package commerce

import "time"

// Seed entity ids. Fixed so the configured login user and tool examples are
// stable across runs.
const (
	// DefaultUserID is the user fruitbot logs in as when no user id is
	// configured.
	DefaultUserID = "67213a4c-2cb6-4549-a87d-87e793bcaa53"

	// SeedUserJohnID is the second seeded customer.
	SeedUserJohnID = "9d3adbcb-6d93-47b8-9652-9f4f4ea4f960"

	SeedItemBananaID    = "0a46a9bd-2b3e-4bcf-9bd0-1cf5a34cbe7b"
	SeedItemAppleID     = "5fa0bbc1-3a1d-4cc9-91a5-0d273dbd2418"
	SeedItemMangoID     = "3c2f1b6e-8aa5-4b3f-bc65-8c676f2b4a4e"
	SeedItemPineappleID = "7e81d3a2-4f0c-4f5b-9e3d-6a1b2c3d4e5f"
	SeedItemOrangeID    = "d94c7a10-52be-4e8f-8a09-bb1c2d3e4f50"
)

// DefaultSeed returns the Fruitify.com demo dataset: two customers, five
// fruit items, one pre-filled cart line and one historical order.
func DefaultSeed() Seed {
	return Seed{
		Users: []User{
			{
				ID:    DefaultUserID,
				Name:  "Ekansh",
				Email: "ekansh@thedevelopercompany.com",
			},
			{
				ID:    SeedUserJohnID,
				Name:  "John Doe",
				Email: "john@doe.com",
			},
		},
		Items: []Item{
			{
				ID:   SeedItemBananaID,
				SKU:  "BANANA-1KG",
				Name: "Banana 1kg",
				Description: "The banana is a widely cultivated and popular fruit that " +
					"belongs to the genus Musa. It is known for its elongated shape, " +
					"smooth skin, and soft, sweet flesh",
				Price: 1,
			},
			{
				ID:   SeedItemAppleID,
				SKU:  "APPLE-1KG",
				Name: "Apple 1kg",
				Description: "The apple is a sweet, edible fruit produced by an apple " +
					"tree. Apple trees are cultivated worldwide and are the most widely " +
					"grown species in the genus Malus.",
				Price: 2,
			},
			{
				ID:   SeedItemMangoID,
				SKU:  "MANGO-1KG",
				Name: "Mango 1kg",
				Description: "The mango is a juicy stone fruit produced from numerous " +
					"species of tropical trees belonging to the flowering plant genus " +
					"Mangifera, cultivated mostly for their edible fruit.",
				Price: 3,
			},
			{
				ID:   SeedItemPineappleID,
				SKU:  "PINEAPPLE-1KG",
				Name: "Pineapple 1kg",
				Description: "The pineapple is a tropical plant with an edible fruit " +
					"and the most economically significant plant in the family " +
					"Bromeliaceae.",
				Price: 4,
			},
			{
				ID:   SeedItemOrangeID,
				SKU:  "ORANGE-1KG",
				Name: "Orange 1kg",
				Description: "The orange is the fruit of various citrus species in the " +
					"family Rutaceae; it primarily refers to Citrus sinensis, which is " +
					"also called sweet orange, to distinguish it from the related " +
					"Citrus aurantium, referred to as bitter orange.",
				Price: 5,
			},
		},
		Cart: []CartLine{
			{
				ID:       "8b6f2a4c-1d3e-4f5a-9b8c-7d6e5f4a3b2c",
				UserID:   DefaultUserID,
				ItemID:   SeedItemAppleID,
				Quantity: 5,
			},
		},
		Orders: []Order{
			{
				ID:     "f3a2b1c0-9d8e-4f7a-b6c5-d4e3f2a1b0c9",
				UserID: DefaultUserID,
				Date:   time.Date(2024, time.December, 17, 0, 0, 0, 0, time.UTC),
				Total:  10,
				Lines: []OrderLine{
					{ItemID: SeedItemBananaID, Quantity: 10, Price: 1},
				},
			},
		},
	}
}

// NewSeededStore creates a Store populated with DefaultSeed.
func NewSeededStore() *Store {
	return NewStore(DefaultSeed())
}
