package extractor

// Page texts shaped like the carrier's invoice layout, one string per page.

const summaryPage = `SZÁMLA
Vevő: Példa Kft.
Számlaösszesítő
Megnevezés Mennyiség Egység Egységár TESZOR ÁFA Nettó összeg ÁFA összeg Bruttó összeg
Mobil szolgáltatás havidíj 1 db 10.000,00 61.20.1 27% 10.000,00 2.700,00 12.700,00
Kedvezmény 1 db -500,00 27% -500,00 -135,00 -635,00
Megjegyzés lásd hátoldal
Összesen 9.500,00 2.565,00 12.065,00
Egyenlegközlő információ
Előző számla egyenlege 0,00`

const chargesPageOne = `KISZÁMLÁZOTT DÍJAK
Telefonszám: 36301234567
Tarifacsomag: Business Flex
Megnevezés TESZOR Nettó ÁFA% ÁFA Bruttó
Havi előfizetési díj 61.20.1 5.000,00 27% 1.350,00 6.350,00`

const chargesPageTwo = `Folytatás
Adatforgalom 61.20.11 1.000,00 27% 270,00 1.270,00
Megjegyzés sor`

const chargesPageThree = `3. oldal
Roaming díj 61.20.1 2.500,50 27% 675,14 3.175,64
Kiszámlázott díjak összesen 8.500,50 2.295,14 10.795,64`

const singleChargesPage = `ÜGYFÉLSZINTŰ DÍJAK
Telefonszám: 36209876543
Megnevezés TESZOR Nettó ÁFA% ÁFA Bruttó
Flotta menedzsment 61.20.1 100,00 27% 27,00 127,00
Kiszámlázott díjak összesen 100,00 27,00 127,00`

const packageFirstPage = `KISZÁMLÁZOTT DÍJAK
Tarifacsomag: Business Flex
Megnevezés TESZOR Nettó ÁFA% ÁFA Bruttó
Telefonszám: 36209876543
Flotta díj 61.20.1 100,00 27% 27,00 127,00
Kiszámlázott díjak összesen 100,00 27,00 127,00`
